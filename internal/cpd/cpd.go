// Package cpd tracks continuing-professional-development hours against a
// tier's annual requirement.
package cpd

import (
	"errors"
	"fmt"
	"time"

	"github.com/ocrp-academy/trainportal/internal/entitlement"
)

// Activity categories.
const (
	CategoryLegalUpdates = "legal-updates"
	CategoryTechnical    = "technical"
	CategoryThirdParty   = "third-party"
	CategoryConferences  = "conferences"
	CategoryOther        = "other"
)

// Annual caps per category. Zero means uncapped. Submissions that would
// push a category past its cap are rejected outright rather than clipped,
// so no claimed hours are ever silently lost.
var categoryCaps = map[string]float64{
	CategoryLegalUpdates: 0,
	CategoryTechnical:    0,
	CategoryThirdParty:   10,
	CategoryConferences:  10,
	CategoryOther:        5,
}

var (
	ErrCategoryCapExceeded = errors.New("cpd: category annual cap exceeded")
	ErrUnknownCategory     = errors.New("cpd: unknown category")
	ErrInvalidHours        = errors.New("cpd: hours must be positive")
)

// Hours is a learner's CPD ledger for one renewal period.
type Hours struct {
	UserID      string             `json:"user_id"`
	Total       float64            `json:"total"`
	ByCategory  map[string]float64 `json:"by_category"`
	PeriodStart time.Time          `json:"period_start"`
	PeriodEnd   time.Time          `json:"period_end"`
}

// NewHours opens a fresh ledger for a renewal period.
func NewHours(userID string, start time.Time, months int) Hours {
	if months <= 0 {
		months = 12
	}
	return Hours{
		UserID:      userID,
		ByCategory:  map[string]float64{},
		PeriodStart: start,
		PeriodEnd:   start.AddDate(0, months, 0),
	}
}

// RecordActivity adds hours to the ledger and returns the updated copy.
// The category must be known and the addition must not exceed the
// category's annual cap.
func RecordActivity(h Hours, category string, addedHours float64) (Hours, error) {
	limit, ok := categoryCaps[category]
	if !ok {
		return h, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if addedHours <= 0 {
		return h, ErrInvalidHours
	}
	current := h.ByCategory[category]
	if limit > 0 && current+addedHours > limit {
		return h, fmt.Errorf("%w: %s at %.1fh of %.1fh", ErrCategoryCapExceeded, category, current, limit)
	}
	out := h
	out.ByCategory = make(map[string]float64, len(h.ByCategory)+1)
	for k, v := range h.ByCategory {
		out.ByCategory[k] = v
	}
	out.ByCategory[category] += addedHours
	out.Total += addedHours
	return out, nil
}

// ProgressPercent reports how much of the annual requirement is met,
// capped at 100. A zero-hour requirement reads as fully satisfied.
func ProgressPercent(h Hours, req entitlement.CPDRequirement) float64 {
	if req.AnnualHoursRequired <= 0 {
		return 100
	}
	pct := 100 * h.Total / req.AnnualHoursRequired
	if pct > 100 {
		return 100
	}
	return pct
}

// RemainingHours reports the hours still needed, never negative.
func RemainingHours(h Hours, req entitlement.CPDRequirement) float64 {
	rem := req.AnnualHoursRequired - h.Total
	if rem < 0 {
		return 0
	}
	return rem
}

// MeetsCategoryMinimums checks the requirement's per-category floors.
// It returns the categories that are still short, empty when satisfied.
func MeetsCategoryMinimums(h Hours, req entitlement.CPDRequirement) []string {
	var short []string
	for cat, min := range req.CategoryMinimums {
		if h.ByCategory[cat] < min {
			short = append(short, cat)
		}
	}
	return short
}

// Satisfied reports whether both the total requirement and every category
// minimum are met.
func Satisfied(h Hours, req entitlement.CPDRequirement) bool {
	if req.AnnualHoursRequired <= 0 {
		return true
	}
	return h.Total >= req.AnnualHoursRequired && len(MeetsCategoryMinimums(h, req)) == 0
}

// Caps exposes the category cap table (read-only copy) for display.
func Caps() map[string]float64 {
	out := make(map[string]float64, len(categoryCaps))
	for k, v := range categoryCaps {
		out[k] = v
	}
	return out
}
