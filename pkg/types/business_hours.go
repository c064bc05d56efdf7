package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Shift is one open/close span within a business day, stored as minutes
// from midnight UTC. CloseMinute is exclusive.
type Shift struct {
	OpenMinute  int `json:"open_minute"`
	CloseMinute int `json:"close_minute"`
}

func (s Shift) Contains(minute int) bool {
	return minute >= s.OpenMinute && minute < s.CloseMinute
}

// BusinessDay holds the shifts for one weekday. A disabled day or a day
// with no shifts is closed.
type BusinessDay struct {
	Weekday time.Weekday `json:"weekday"`
	Enabled bool         `json:"enabled"`
	Shifts  []Shift      `json:"shifts"`
}

// BusinessHours is the merchant's weekly opening schedule persisted as
// JSONB. Display strings like "9:00 AM" are normalized to minutes at
// config-write time so reads never parse clock text.
type BusinessHours struct {
	Enabled bool          `json:"enabled"`
	Days    []BusinessDay `json:"days"`
}

// Value marshals the schedule into JSON for Postgres.
func (b BusinessHours) Value() (driver.Value, error) {
	buf, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Scan decodes JSONB into the schedule.
func (b *BusinessHours) Scan(value interface{}) error {
	if value == nil {
		*b = BusinessHours{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("business hours: unsupported scan type %T", value)
	}

	var result BusinessHours
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*b = result
	return nil
}

// Day returns the schedule for the given weekday, if present.
func (b BusinessHours) Day(weekday time.Weekday) (BusinessDay, bool) {
	for _, day := range b.Days {
		if day.Weekday == weekday {
			return day, true
		}
	}
	return BusinessDay{}, false
}

// IsOpenAt reports whether any shift covers the given UTC instant. When
// the whole schedule is disabled the store is treated as always open.
func (b BusinessHours) IsOpenAt(at time.Time) bool {
	if !b.Enabled {
		return true
	}
	at = at.UTC()
	day, ok := b.Day(at.Weekday())
	if !ok || !day.Enabled {
		return false
	}
	minute := at.Hour()*60 + at.Minute()
	for _, shift := range day.Shifts {
		if shift.Contains(minute) {
			return true
		}
	}
	return false
}

// IsClosedOn reports whether the weekday has no open shift at all.
func (b BusinessHours) IsClosedOn(weekday time.Weekday) bool {
	if !b.Enabled {
		return false
	}
	day, ok := b.Day(weekday)
	if !ok || !day.Enabled {
		return true
	}
	return len(day.Shifts) == 0
}
