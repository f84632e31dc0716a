package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/loomhr/leave-engine/leave"
)

// =============================================================================
// WORKWEEK TESTS
// =============================================================================

func TestWorkweek_MondayToFriday(t *testing.T) {
	cfg := leave.WorkweekConfig{StartDay: time.Monday, EndDay: time.Friday}

	// 2024-07-01 is a Monday
	monday := leave.NewDate(2024, time.July, 1)
	for i := 0; i < 5; i++ {
		assert.True(t, cfg.IsWorkingDay(monday.AddDays(i)), "weekday %d should be working", i)
	}
	assert.False(t, cfg.IsWorkingDay(monday.AddDays(5)), "Saturday should not be working")
	assert.False(t, cfg.IsWorkingDay(monday.AddDays(6)), "Sunday should not be working")
}

func TestWorkweek_SundayToThursday(t *testing.T) {
	// GIVEN: a Sun-Thu deployment (startDay=0, endDay=4)
	// THEN: Sunday through Thursday are working, Friday and Saturday are not,
	// for any date.
	cfg := leave.WorkweekConfig{StartDay: time.Sunday, EndDay: time.Thursday}

	sunday := leave.NewDate(2024, time.June, 30) // a Sunday
	for week := 0; week < 3; week++ {
		base := sunday.AddDays(7 * week)
		for i := 0; i < 5; i++ {
			assert.True(t, cfg.IsWorkingDay(base.AddDays(i)), "%s should be working", base.AddDays(i))
		}
		assert.False(t, cfg.IsWorkingDay(base.AddDays(5)), "Friday should not be working")
		assert.False(t, cfg.IsWorkingDay(base.AddDays(6)), "Saturday should not be working")
	}
}

func TestWorkweek_Wraparound(t *testing.T) {
	// GIVEN: a wrapping week Fri-Mon (startDay=5 > endDay=1)
	// THEN: Fri, Sat, Sun, Mon are working; Tue-Thu are not.
	cfg := leave.WorkweekConfig{StartDay: time.Friday, EndDay: time.Monday}

	friday := leave.NewDate(2024, time.July, 5)
	assert.True(t, cfg.IsWorkingDay(friday))            // Fri
	assert.True(t, cfg.IsWorkingDay(friday.AddDays(1))) // Sat
	assert.True(t, cfg.IsWorkingDay(friday.AddDays(2))) // Sun
	assert.True(t, cfg.IsWorkingDay(friday.AddDays(3))) // Mon
	assert.False(t, cfg.IsWorkingDay(friday.AddDays(4)))
	assert.False(t, cfg.IsWorkingDay(friday.AddDays(5)))
	assert.False(t, cfg.IsWorkingDay(friday.AddDays(6)))
}

func TestWorkweekConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     leave.WorkweekConfig
		wantErr bool
	}{
		{"monday-friday", leave.WorkweekConfig{StartDay: 1, EndDay: 5}, false},
		{"wrapping", leave.WorkweekConfig{StartDay: 6, EndDay: 3}, false},
		{"start out of range", leave.WorkweekConfig{StartDay: 7, EndDay: 5}, true},
		{"end out of range", leave.WorkweekConfig{StartDay: 1, EndDay: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, leave.ErrInvalidWorkweek)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
