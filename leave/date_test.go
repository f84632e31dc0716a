package leave_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomhr/leave-engine/leave"
)

// =============================================================================
// DATE TESTS
// =============================================================================

func TestParseDate_RoundTrip(t *testing.T) {
	d, err := leave.ParseDate("2024-07-04")
	require.NoError(t, err)
	assert.Equal(t, "2024-07-04", d.String())
	assert.Equal(t, time.Thursday, d.Weekday())
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := leave.ParseDate("07/04/2024")
	assert.Error(t, err)
}

func TestDate_JSONRoundTrip(t *testing.T) {
	r := leave.DateRange{
		Start: leave.NewDate(2024, time.July, 1),
		End:   leave.NewDate(2024, time.July, 3),
	}
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2024-07-01","end":"2024-07-03"}`, string(b))

	var back leave.DateRange
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Start.Equal(r.Start))
	assert.True(t, back.End.Equal(r.End))
}

// =============================================================================
// RANGE VALIDATION TESTS
// =============================================================================

func TestDateRange_StartAfterEnd_Rejected(t *testing.T) {
	r := leave.DateRange{
		Start: leave.NewDate(2024, time.July, 5),
		End:   leave.NewDate(2024, time.July, 1),
	}
	err := r.Validate()
	assert.ErrorIs(t, err, leave.ErrInvalidRange)
}

func TestDateRange_SingleDay_Valid(t *testing.T) {
	d := leave.NewDate(2024, time.July, 4)
	r := leave.DateRange{Start: d, End: d}
	assert.NoError(t, r.Validate())
	assert.Equal(t, 1, r.Length())
}

func TestValidateRanges_Overlapping_Rejected(t *testing.T) {
	ranges := []leave.DateRange{
		{Start: leave.NewDate(2024, time.July, 1), End: leave.NewDate(2024, time.July, 5)},
		{Start: leave.NewDate(2024, time.July, 5), End: leave.NewDate(2024, time.July, 8)},
	}
	err := leave.ValidateRanges(ranges)
	assert.ErrorIs(t, err, leave.ErrOverlappingRanges)
}

func TestValidateRanges_OutOfOrder_Rejected(t *testing.T) {
	ranges := []leave.DateRange{
		{Start: leave.NewDate(2024, time.July, 8), End: leave.NewDate(2024, time.July, 9)},
		{Start: leave.NewDate(2024, time.July, 1), End: leave.NewDate(2024, time.July, 3)},
	}
	err := leave.ValidateRanges(ranges)
	assert.ErrorIs(t, err, leave.ErrOverlappingRanges)
}

func TestValidateRanges_AscendingDisjoint_Accepted(t *testing.T) {
	ranges := []leave.DateRange{
		{Start: leave.NewDate(2024, time.July, 1), End: leave.NewDate(2024, time.July, 3)},
		{Start: leave.NewDate(2024, time.July, 8), End: leave.NewDate(2024, time.July, 9)},
	}
	assert.NoError(t, leave.ValidateRanges(ranges))
}

func TestDateRange_Days_Enumerates(t *testing.T) {
	r := leave.DateRange{
		Start: leave.NewDate(2024, time.July, 1),
		End:   leave.NewDate(2024, time.July, 3),
	}
	days := r.Days()
	require.Len(t, days, 3)
	assert.Equal(t, "2024-07-01", days[0].String())
	assert.Equal(t, "2024-07-03", days[2].String())
}
