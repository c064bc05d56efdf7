package merchants

import (
	"fmt"
	"time"

	pkgerrors "github.com/nbox-app/nbox-backend/pkg/errors"
	"github.com/nbox-app/nbox-backend/pkg/types"
)

// ShiftInput is one open/close span as submitted by the merchant
// dashboard, e.g. {"9:00 AM", "5:30 PM"}.
type ShiftInput struct {
	Open  string `json:"open" validate:"required"`
	Close string `json:"close" validate:"required"`
}

// DayInput is one weekday's schedule as submitted.
type DayInput struct {
	Weekday time.Weekday `json:"weekday" validate:"min=0,max=6"`
	Enabled bool         `json:"enabled"`
	Shifts  []ShiftInput `json:"shifts" validate:"dive"`
}

// HoursInput is the full weekly schedule as submitted.
type HoursInput struct {
	Enabled bool       `json:"enabled"`
	Days    []DayInput `json:"days" validate:"dive"`
}

// NormalizeHours parses clock strings into minute-of-day spans once, at
// write time. Checkout validation only ever sees the normalized form.
func NormalizeHours(input HoursInput) (types.BusinessHours, error) {
	out := types.BusinessHours{Enabled: input.Enabled}
	seen := map[time.Weekday]bool{}
	for _, day := range input.Days {
		if day.Weekday < time.Sunday || day.Weekday > time.Saturday {
			return types.BusinessHours{}, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("invalid weekday %d", day.Weekday))
		}
		if seen[day.Weekday] {
			return types.BusinessHours{}, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("duplicate weekday %s", day.Weekday))
		}
		seen[day.Weekday] = true

		normalized := types.BusinessDay{Weekday: day.Weekday, Enabled: day.Enabled}
		for _, shift := range day.Shifts {
			open, err := types.ParseClock(shift.Open)
			if err != nil {
				return types.BusinessHours{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid open time")
			}
			closeAt, err := types.ParseClock(shift.Close)
			if err != nil {
				return types.BusinessHours{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid close time")
			}
			if closeAt <= open {
				return types.BusinessHours{}, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("shift %s-%s closes before it opens", shift.Open, shift.Close))
			}
			normalized.Shifts = append(normalized.Shifts, types.Shift{OpenMinute: open, CloseMinute: closeAt})
		}
		out.Days = append(out.Days, normalized)
	}
	return out, nil
}
