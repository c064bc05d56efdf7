package merchants

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHours(t *testing.T) {
	input := HoursInput{
		Enabled: true,
		Days: []DayInput{
			{
				Weekday: time.Monday,
				Enabled: true,
				Shifts: []ShiftInput{
					{Open: "9:00 AM", Close: "12:30 PM"},
					{Open: "1:30 PM", Close: "5:00 PM"},
				},
			},
			{
				Weekday: time.Sunday,
				Enabled: false,
			},
		},
	}

	hours, err := NormalizeHours(input)
	require.NoError(t, err)
	require.True(t, hours.Enabled)
	require.Len(t, hours.Days, 2)

	monday, ok := hours.Day(time.Monday)
	require.True(t, ok)
	require.Len(t, monday.Shifts, 2)
	assert.Equal(t, 9*60, monday.Shifts[0].OpenMinute)
	assert.Equal(t, 12*60+30, monday.Shifts[0].CloseMinute)
	assert.Equal(t, 13*60+30, monday.Shifts[1].OpenMinute)
	assert.Equal(t, 17*60, monday.Shifts[1].CloseMinute)

	assert.True(t, hours.IsClosedOn(time.Sunday))
}

func TestNormalizeHoursRejectsInvertedShift(t *testing.T) {
	_, err := NormalizeHours(HoursInput{
		Enabled: true,
		Days: []DayInput{
			{
				Weekday: time.Tuesday,
				Enabled: true,
				Shifts:  []ShiftInput{{Open: "5:00 PM", Close: "9:00 AM"}},
			},
		},
	})
	require.Error(t, err)
}

func TestNormalizeHoursRejectsBadClock(t *testing.T) {
	_, err := NormalizeHours(HoursInput{
		Enabled: true,
		Days: []DayInput{
			{
				Weekday: time.Tuesday,
				Enabled: true,
				Shifts:  []ShiftInput{{Open: "25:00", Close: "9:00 AM"}},
			},
		},
	})
	require.Error(t, err)
}

func TestNormalizeHoursRejectsDuplicateWeekday(t *testing.T) {
	_, err := NormalizeHours(HoursInput{
		Enabled: true,
		Days: []DayInput{
			{Weekday: time.Friday, Enabled: true},
			{Weekday: time.Friday, Enabled: false},
		},
	})
	require.Error(t, err)
}
