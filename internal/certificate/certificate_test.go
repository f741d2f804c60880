package certificate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocrp-academy/trainportal/internal/assessment"
	"github.com/ocrp-academy/trainportal/internal/certificate"
	"github.com/ocrp-academy/trainportal/internal/progress"
)

func passedProgress(userID string) progress.UserProgress {
	p := progress.New(userID)
	return progress.RecordAssessment(p, assessment.Result{Score: 90, Passed: true, Completed: true})
}

func TestIssueRequiresPass(t *testing.T) {
	issuer := certificate.NewIssuer(certificate.NewInMemoryStore())
	holder := certificate.Holder{Name: "Dana Reyes", Organization: "Acme Ltd"}
	when := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

	p := progress.New("u1")
	_, err := issuer.Issue(context.Background(), p, holder, when)
	assert.ErrorIs(t, err, certificate.ErrNotEligible)

	failed := progress.RecordAssessment(p, assessment.Result{Score: 70, Passed: false, Completed: true})
	_, err = issuer.Issue(context.Background(), failed, holder, when)
	assert.ErrorIs(t, err, certificate.ErrNotEligible)
}

func TestIssueIsIdempotent(t *testing.T) {
	issuer := certificate.NewIssuer(certificate.NewInMemoryStore())
	holder := certificate.Holder{Name: "Dana Reyes", Organization: "Acme Ltd"}
	when := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

	first, err := issuer.Issue(context.Background(), passedProgress("u1"), holder, when)
	require.NoError(t, err)
	assert.True(t, len(first.CertificateID) > len("OCRP-"))
	assert.Equal(t, "OCRP-", first.CertificateID[:5])
	assert.Equal(t, "2025-03-10", first.IssueDate)

	// a later call, even with a different wall-clock time, returns the
	// identical certificate
	second, err := issuer.Issue(context.Background(), passedProgress("u1"), holder, when.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDistinctLearnersGetDistinctIDs(t *testing.T) {
	issuer := certificate.NewIssuer(certificate.NewInMemoryStore())
	when := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	a, err := issuer.Issue(context.Background(), passedProgress("u1"),
		certificate.Holder{Name: "Dana Reyes"}, when)
	require.NoError(t, err)
	b, err := issuer.Issue(context.Background(), passedProgress("u2"),
		certificate.Holder{Name: "Kim Osei"}, when)
	require.NoError(t, err)
	assert.NotEqual(t, a.CertificateID, b.CertificateID)
}

func TestIssueRequiresHolderName(t *testing.T) {
	issuer := certificate.NewIssuer(certificate.NewInMemoryStore())
	_, err := issuer.Issue(context.Background(), passedProgress("u1"),
		certificate.Holder{Name: "  "}, time.Now())
	assert.Error(t, err)
}
