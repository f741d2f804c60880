package certificate

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"
)

// SQLStore keeps issued certificates and the issuance serial counter.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Get(ctx context.Context, userID string) (Certificate, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT certificate_id, holder_name, organization_name, issue_date
		 FROM certificates WHERE user_id=$1`, userID)
	var c Certificate
	err := row.Scan(&c.CertificateID, &c.HolderName, &c.OrganizationName, &c.IssueDate)
	if errors.Is(err, sql.ErrNoRows) {
		return Certificate{}, false, nil
	}
	if err != nil {
		return Certificate{}, false, err
	}
	return c, true, nil
}

func (s *SQLStore) NextSerial(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	var serial int64
	err = tx.QueryRowContext(ctx, `SELECT value FROM certificate_serials WHERE name='issuance'`).Scan(&serial)
	if errors.Is(err, sql.ErrNoRows) {
		serial = 0
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO certificate_serials (name, value) VALUES ('issuance', 0)`); err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}
	serial++
	if _, err := tx.ExecContext(ctx,
		`UPDATE certificate_serials SET value=$1 WHERE name='issuance'`, serial); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return serial, nil
}

func (s *SQLStore) Put(ctx context.Context, userID string, c Certificate) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO certificates
		(user_id, certificate_id, holder_name, organization_name, issue_date, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, c.CertificateID, c.HolderName, c.OrganizationName, c.IssueDate, time.Now().Unix())
	return err
}

// memoryStore backs tests.
type memoryStore struct {
	mu     sync.Mutex
	byUser map[string]Certificate
	serial int64
}

// NewInMemoryStore is suitable for tests and single-process use.
func NewInMemoryStore() Store {
	return &memoryStore{byUser: map[string]Certificate{}}
}

func (m *memoryStore) Get(_ context.Context, userID string) (Certificate, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byUser[userID]
	return c, ok, nil
}

func (m *memoryStore) NextSerial(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serial++
	return m.serial, nil
}

func (m *memoryStore) Put(_ context.Context, userID string, c Certificate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUser[userID]; !ok {
		m.byUser[userID] = c
	}
	return nil
}
