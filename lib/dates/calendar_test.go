package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "plain date",
			value: "2024-01-15",
			want:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "rfc3339 timestamp",
			value: "2024-01-15T08:30:00Z",
			want:  time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC),
		},
		{
			name:  "timestamp without zone",
			value: "2024-01-15T08:30:00",
			want:  time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC),
		},
		{
			name:    "garbage",
			value:   "not-a-date",
			wantErr: true,
		},
		{
			name:    "empty",
			value:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}
}

func TestDaysBetween(t *testing.T) {
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysBetween(jan1, jan1))
	assert.Equal(t, 9, DaysBetween(jan1, jan1.AddDate(0, 0, 9)))
	assert.Equal(t, -9, DaysBetween(jan1.AddDate(0, 0, 9), jan1))

	// Time of day must not influence the calendar-day difference
	lateEvening := time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)
	earlyMorning := time.Date(2024, 1, 2, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysBetween(lateEvening, earlyMorning))
}

func TestAddMonths(t *testing.T) {
	deployed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), AddMonths(deployed, 2))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), AddMonths(deployed, 12))
}

func TestMonthBounds(t *testing.T) {
	mid := time.Date(2024, 2, 14, 13, 45, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), StartOfMonth(mid))
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC), EndOfMonth(mid))

	assert.True(t, SameMonth(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), mid))
	assert.True(t, SameMonth(time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC), mid))
	assert.False(t, SameMonth(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), mid))
	assert.False(t, SameMonth(time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC), mid))
}
