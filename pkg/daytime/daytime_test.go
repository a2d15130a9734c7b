package daytime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockAndDayName(t *testing.T) {
	// 2024-01-01 was a Monday
	now := time.Date(2024, 1, 1, 7, 5, 42, 0, time.Local)

	assert.Equal(t, "07:05", Clock(now))
	assert.Equal(t, "Monday", DayName(now))
	assert.Equal(t, "2024-01-01", DateKey(now))
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("23:59")
	require.NoError(t, err)
	assert.Equal(t, 23, h)
	assert.Equal(t, 59, m)

	for _, bad := range []string{"", "7", "24:00", "12:60", "ab:cd", "1:2:3"} {
		_, _, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestMinuteOfDayRoundTrip(t *testing.T) {
	mins, err := MinuteOfDay("07:30")
	require.NoError(t, err)
	assert.Equal(t, 450, mins)
	assert.Equal(t, "07:30", FromMinuteOfDay(mins))
	assert.Equal(t, "00:10", FromMinuteOfDay(MinutesPerDay+10))
	assert.Equal(t, "23:50", FromMinuteOfDay(-10))
}

func TestTo12Hour(t *testing.T) {
	cases := map[string]string{
		"00:00": "12:00 AM",
		"07:05": "7:05 AM",
		"12:00": "12:00 PM",
		"13:45": "1:45 PM",
		"23:59": "11:59 PM",
		"bogus": "bogus",
	}
	for in, want := range cases {
		assert.Equal(t, want, To12Hour(in), in)
	}
}

func TestFrom12Hour(t *testing.T) {
	cases := map[string]string{
		"12:00 AM": "00:00",
		"7:05 am":  "07:05",
		"12:30 PM": "12:30",
		"11:59 PM": "23:59",
	}
	for in, want := range cases {
		got, err := From12Hour(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := From12Hour("13:00 PM")
	assert.Error(t, err)
	_, err = From12Hour("7:05")
	assert.Error(t, err)
}

func TestNormalizeClock(t *testing.T) {
	cases := map[string]string{
		"7:00":     "07:00",
		"07:00":    "07:00",
		" 9:5 ":    "09:05",
		"23:59":    "23:59",
		"7:05 am":  "07:05",
		"12:15 PM": "12:15",
	}
	for in, want := range cases {
		got, err := NormalizeClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "7", "24:00", "7pm", "13:00 PM"} {
		_, err := NormalizeClock(in)
		assert.Error(t, err, in)
	}
}

func TestOn(t *testing.T) {
	now := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
	at, err := On(now, "06:15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 6, 15, 0, 0, time.UTC), at)
}

func TestNormalizeDay(t *testing.T) {
	day, ok := NormalizeDay("mon")
	require.True(t, ok)
	assert.Equal(t, "Monday", day)

	day, ok = NormalizeDay("SUNDAY")
	require.True(t, ok)
	assert.Equal(t, "Sunday", day)

	_, ok = NormalizeDay("mo")
	assert.False(t, ok)
	_, ok = NormalizeDay("funday")
	assert.False(t, ok)
}
