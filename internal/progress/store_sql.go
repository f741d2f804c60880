package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Store loads and saves whole aggregates. A missing aggregate is not an
// error: callers start fresh.
type Store interface {
	Load(ctx context.Context, userID string) (UserProgress, bool, error)
	Save(ctx context.Context, p UserProgress) error
	// ListAll returns every stored aggregate, for admin batch reporting.
	ListAll(ctx context.Context) ([]UserProgress, error)
}

// SQLStore keeps one row per learner with the aggregate as a JSON blob,
// replaced atomically on every save.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Load(ctx context.Context, userID string) (UserProgress, bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body_json FROM user_progress WHERE user_id=$1`, userID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return UserProgress{}, false, nil
	}
	if err != nil {
		return UserProgress{}, false, err
	}
	var p UserProgress
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return UserProgress{}, false, err
	}
	return p, true, nil
}

func (s *SQLStore) Save(ctx context.Context, p UserProgress) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO user_progress (user_id, body_json, updated_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (user_id) DO UPDATE SET body_json=EXCLUDED.body_json, updated_at=EXCLUDED.updated_at`,
		p.UserID, string(body), time.Now().Unix())
	return err
}

func (s *SQLStore) ListAll(ctx context.Context) ([]UserProgress, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body_json FROM user_progress ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []UserProgress
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var p UserProgress
		if err := json.Unmarshal([]byte(body), &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
