// Package certificate issues completion certificates. Issuance is
// idempotent: the certificate id is derived from the holder's identity,
// the completion day and a persisted serial, never from the wall clock at
// render time, so repeated calls return the identical certificate.
package certificate

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ocrp-academy/trainportal/internal/progress"
)

// ErrNotEligible rejects issuance before the final assessment is passed.
var ErrNotEligible = errors.New("certificate: final assessment not passed")

// Holder identifies who the certificate is made out to.
type Holder struct {
	Name         string `json:"name"`
	Organization string `json:"organization"`
}

// Certificate is the issued credential. It is regenerable from stored
// state at any time and never changes once issued.
type Certificate struct {
	CertificateID    string `json:"certificate_id"`
	HolderName       string `json:"holder_name"`
	OrganizationName string `json:"organization_name"`
	IssueDate        string `json:"issue_date"` // YYYY-MM-DD
}

// Store persists issued certificates and allocates serials.
type Store interface {
	// Get returns the learner's certificate if one was already issued.
	Get(ctx context.Context, userID string) (Certificate, bool, error)
	// NextSerial allocates the next issuance serial.
	NextSerial(ctx context.Context) (int64, error)
	Put(ctx context.Context, userID string, c Certificate) error
}

// Issuer gates and performs issuance.
type Issuer struct {
	store Store
}

func NewIssuer(store Store) *Issuer { return &Issuer{store: store} }

// Issue returns the learner's certificate, creating it on first call.
// completedAt is the final-assessment submission time; only its calendar
// day enters the certificate.
func (i *Issuer) Issue(ctx context.Context, p progress.UserProgress, holder Holder, completedAt time.Time) (Certificate, error) {
	if c, ok, err := i.store.Get(ctx, p.UserID); err != nil {
		return Certificate{}, err
	} else if ok {
		return c, nil
	}
	if !progress.CertificateEligible(p) {
		return Certificate{}, ErrNotEligible
	}
	if strings.TrimSpace(holder.Name) == "" {
		return Certificate{}, fmt.Errorf("certificate: holder name required")
	}
	serial, err := i.store.NextSerial(ctx)
	if err != nil {
		return Certificate{}, err
	}
	day := completedAt.UTC().Format("2006-01-02")
	c := Certificate{
		CertificateID:    deriveID(holder, day, serial),
		HolderName:       holder.Name,
		OrganizationName: holder.Organization,
		IssueDate:        day,
	}
	if err := i.store.Put(ctx, p.UserID, c); err != nil {
		return Certificate{}, err
	}
	return c, nil
}

// deriveID hashes the stable issuance inputs into an OCRP-prefixed base36
// identifier.
func deriveID(holder Holder, day string, serial int64) string {
	h := sha256.New()
	h.Write([]byte(holder.Name))
	h.Write([]byte{0})
	h.Write([]byte(holder.Organization))
	h.Write([]byte{0})
	h.Write([]byte(day))
	h.Write([]byte{0})
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(serial))
	h.Write(buf[:])
	sum := h.Sum(nil)
	n := binary.BigEndian.Uint64(sum[:8])
	return "OCRP-" + strings.ToUpper(strconv.FormatUint(n, 36))
}
