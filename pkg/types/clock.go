package types

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock converts a 12-hour clock string such as "9:00 AM" or
// "11:30 pm" into minutes from midnight. Merchant dashboards submit
// hours in this format; they are normalized once on write.
func ParseClock(value string) (int, error) {
	trimmed := strings.TrimSpace(strings.ToUpper(value))
	var meridiem string
	switch {
	case strings.HasSuffix(trimmed, "AM"):
		meridiem = "AM"
	case strings.HasSuffix(trimmed, "PM"):
		meridiem = "PM"
	default:
		return 0, fmt.Errorf("clock: %q missing AM/PM", value)
	}

	clock := strings.TrimSpace(strings.TrimSuffix(trimmed, meridiem))
	hourPart, minutePart, found := strings.Cut(clock, ":")
	if !found {
		minutePart = "0"
	}

	hour, err := strconv.Atoi(strings.TrimSpace(hourPart))
	if err != nil || hour < 1 || hour > 12 {
		return 0, fmt.Errorf("clock: invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(strings.TrimSpace(minutePart))
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock: invalid minute in %q", value)
	}

	if hour == 12 {
		hour = 0
	}
	if meridiem == "PM" {
		hour += 12
	}
	return hour*60 + minute, nil
}

// FormatClock renders minutes from midnight back into "9:00 AM" form.
func FormatClock(minute int) string {
	minute %= 24 * 60
	if minute < 0 {
		minute += 24 * 60
	}
	hour := minute / 60
	meridiem := "AM"
	displayHour := hour
	if hour >= 12 {
		meridiem = "PM"
		displayHour = hour - 12
	}
	if displayHour == 0 {
		displayHour = 12
	}
	return fmt.Sprintf("%d:%02d %s", displayHour, minute%60, meridiem)
}
