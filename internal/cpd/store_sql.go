package cpd

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Store persists one ledger per learner.
type Store interface {
	Load(ctx context.Context, userID string) (Hours, bool, error)
	Save(ctx context.Context, h Hours) error
}

// SQLStore keeps the ledger as a JSON blob, one row per learner.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Load(ctx context.Context, userID string) (Hours, bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body_json FROM cpd_hours WHERE user_id=$1`, userID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return Hours{}, false, nil
	}
	if err != nil {
		return Hours{}, false, err
	}
	var h Hours
	if err := json.Unmarshal([]byte(body), &h); err != nil {
		return Hours{}, false, err
	}
	if h.ByCategory == nil {
		h.ByCategory = map[string]float64{}
	}
	return h, true, nil
}

func (s *SQLStore) Save(ctx context.Context, h Hours) error {
	body, err := json.Marshal(h)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO cpd_hours (user_id, body_json, updated_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (user_id) DO UPDATE SET body_json=EXCLUDED.body_json, updated_at=EXCLUDED.updated_at`,
		h.UserID, string(body), time.Now().Unix())
	return err
}
