package leave_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomhr/leave-engine/leave"
)

func TestHolidayRegistry_AddAndLookup(t *testing.T) {
	registry, err := leave.NewHolidayRegistry(nil)
	require.NoError(t, err)

	holiday := leave.Holiday{
		Date:     mustDate(t, "2024-12-25"),
		Name:     "Christmas Day",
		Category: leave.CategoryPublic,
	}
	require.NoError(t, registry.Add(holiday))

	found, ok := registry.Lookup(mustDate(t, "2024-12-25"))
	assert.True(t, ok)
	assert.Equal(t, "Christmas Day", found.Name)
	assert.True(t, registry.IsHoliday(mustDate(t, "2024-12-25")))
	assert.False(t, registry.IsHoliday(mustDate(t, "2024-12-26")))
}

func TestHolidayRegistry_DuplicateDateRejected(t *testing.T) {
	registry, err := leave.NewHolidayRegistry([]leave.Holiday{
		{Date: mustDate(t, "2024-07-04"), Name: "Independence Day", Category: leave.CategoryPublic},
	})
	require.NoError(t, err)

	err = registry.Add(leave.Holiday{
		Date: mustDate(t, "2024-07-04"), Name: "Company Picnic", Category: leave.CategoryNational,
	})

	assert.ErrorIs(t, err, leave.ErrDuplicateHoliday)
	var dup *leave.DuplicateHolidayError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Independence Day", dup.Existing)
}

func TestHolidayRegistry_AllSortedByDate(t *testing.T) {
	registry, err := leave.NewHolidayRegistry([]leave.Holiday{
		{Date: mustDate(t, "2024-12-25"), Name: "Christmas Day", Category: leave.CategoryPublic},
		{Date: mustDate(t, "2024-01-01"), Name: "New Year's Day", Category: leave.CategoryPublic},
		{Date: mustDate(t, "2024-07-04"), Name: "Independence Day", Category: leave.CategoryPublic},
	})
	require.NoError(t, err)

	all := registry.All()
	require.Len(t, all, 3)
	assert.Equal(t, "New Year's Day", all[0].Name)
	assert.Equal(t, "Independence Day", all[1].Name)
	assert.Equal(t, "Christmas Day", all[2].Name)
}

func TestDefaultUSHolidays(t *testing.T) {
	holidays := leave.DefaultUSHolidays(2024)
	require.Len(t, holidays, 8)

	byDate := make(map[string]string)
	for _, h := range holidays {
		byDate[h.Date.String()] = h.Name
	}
	assert.Contains(t, byDate, "2024-01-01")
	assert.Contains(t, byDate, "2024-07-04")
	assert.Contains(t, byDate, "2024-12-25")
	// Floating holidays land on the right weekday-of-month.
	assert.Contains(t, byDate, "2024-11-28") // fourth Thursday of November
	assert.Contains(t, byDate, "2024-05-27") // last Monday of May
}
