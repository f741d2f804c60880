package cpd_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocrp-academy/trainportal/internal/cpd"
	"github.com/ocrp-academy/trainportal/internal/entitlement"
)

func ledger(t *testing.T) cpd.Hours {
	t.Helper()
	return cpd.NewHours("u1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 12)
}

func TestZeroRequirementReadsAsSatisfied(t *testing.T) {
	h := ledger(t)
	req := entitlement.CPDRequirement{AnnualHoursRequired: 0}

	assert.Equal(t, float64(100), cpd.ProgressPercent(h, req))
	assert.True(t, cpd.Satisfied(h, req))

	// even with hours recorded, no division happens
	h, err := cpd.RecordActivity(h, cpd.CategoryTechnical, 3)
	require.NoError(t, err)
	assert.Equal(t, float64(100), cpd.ProgressPercent(h, req))
}

func TestProgressPercentCapsAtHundred(t *testing.T) {
	h := ledger(t)
	req := entitlement.CPDRequirement{AnnualHoursRequired: 10}

	h, err := cpd.RecordActivity(h, cpd.CategoryLegalUpdates, 4)
	require.NoError(t, err)
	assert.InDelta(t, 40, cpd.ProgressPercent(h, req), 1e-9)
	assert.InDelta(t, 6, cpd.RemainingHours(h, req), 1e-9)

	h, err = cpd.RecordActivity(h, cpd.CategoryTechnical, 20)
	require.NoError(t, err)
	assert.Equal(t, float64(100), cpd.ProgressPercent(h, req))
	assert.Zero(t, cpd.RemainingHours(h, req))
}

func TestCategoryCapsRejectExcess(t *testing.T) {
	h := ledger(t)

	h, err := cpd.RecordActivity(h, cpd.CategoryConferences, 8)
	require.NoError(t, err)

	// 8 + 3 would cross the 10h conference cap: rejected whole, ledger unchanged
	_, err = cpd.RecordActivity(h, cpd.CategoryConferences, 3)
	assert.ErrorIs(t, err, cpd.ErrCategoryCapExceeded)
	assert.Equal(t, float64(8), h.ByCategory[cpd.CategoryConferences])
	assert.Equal(t, float64(8), h.Total)

	// exactly reaching the cap is fine
	h, err = cpd.RecordActivity(h, cpd.CategoryConferences, 2)
	require.NoError(t, err)
	assert.Equal(t, float64(10), h.ByCategory[cpd.CategoryConferences])

	_, err = cpd.RecordActivity(h, cpd.CategoryOther, 6)
	assert.ErrorIs(t, err, cpd.ErrCategoryCapExceeded, "other is capped at 5h")
}

func TestRecordActivityValidation(t *testing.T) {
	h := ledger(t)

	_, err := cpd.RecordActivity(h, "stamp-collecting", 1)
	assert.ErrorIs(t, err, cpd.ErrUnknownCategory)

	_, err = cpd.RecordActivity(h, cpd.CategoryTechnical, 0)
	assert.ErrorIs(t, err, cpd.ErrInvalidHours)

	_, err = cpd.RecordActivity(h, cpd.CategoryTechnical, -2)
	assert.ErrorIs(t, err, cpd.ErrInvalidHours)
}

func TestCategoryMinimums(t *testing.T) {
	h := ledger(t)
	req := entitlement.CPDRequirement{
		AnnualHoursRequired: 10,
		CategoryMinimums:    map[string]float64{cpd.CategoryLegalUpdates: 4},
	}

	h, err := cpd.RecordActivity(h, cpd.CategoryTechnical, 10)
	require.NoError(t, err)
	assert.False(t, cpd.Satisfied(h, req), "total met but legal-updates minimum missing")
	assert.Equal(t, []string{cpd.CategoryLegalUpdates}, cpd.MeetsCategoryMinimums(h, req))

	h, err = cpd.RecordActivity(h, cpd.CategoryLegalUpdates, 4)
	require.NoError(t, err)
	assert.True(t, cpd.Satisfied(h, req))
	assert.Empty(t, cpd.MeetsCategoryMinimums(h, req))
}

func TestRecordActivityDoesNotMutateInput(t *testing.T) {
	h := ledger(t)
	out, err := cpd.RecordActivity(h, cpd.CategoryTechnical, 2)
	require.NoError(t, err)
	assert.Zero(t, h.Total)
	assert.Equal(t, float64(2), out.Total)
}
