package assessment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/ocrp-academy/trainportal/internal/bank"
)

// SQLStore persists sessions in the sessions table. The shuffled question
// and option orders are serialized as JSON so a reload sees the exact
// ordering the learner answered against.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

type sessionRow struct {
	Questions []bank.Entry   `json:"questions"`
	Options   [][]string     `json:"options"`
	Answers   map[int]string `json:"answers"`
}

func (s *SQLStore) Put(ctx context.Context, sess Session) error {
	body, err := json.Marshal(sessionRow{Questions: sess.Questions, Options: sess.Options, Answers: sess.Answers})
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO sessions
		(id,user_id,kind,status,passing_score,attempt_number,score,passed,body_json,started_at,submitted_at,deadline)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET
		  status=EXCLUDED.status, score=EXCLUDED.score, passed=EXCLUDED.passed,
		  body_json=EXCLUDED.body_json, submitted_at=EXCLUDED.submitted_at`,
		sess.ID, sess.UserID, sess.Kind, sess.Status, sess.PassingScore, sess.AttemptNumber,
		sess.Score, sess.Passed, string(body), sess.StartedAt, nullableInt(sess.SubmittedAt), nullableInt(sess.Deadline))
	return err
}

func (s *SQLStore) Get(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,user_id,kind,status,passing_score,attempt_number,score,passed,body_json,started_at,submitted_at,deadline
		FROM sessions WHERE id=$1`, id)
	return scanSession(row)
}

func (s *SQLStore) Active(ctx context.Context, userID, kind string) (Session, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,user_id,kind,status,passing_score,attempt_number,score,passed,body_json,started_at,submitted_at,deadline
		FROM sessions WHERE user_id=$1 AND kind=$2 AND status=$3
		ORDER BY started_at DESC LIMIT 1`, userID, kind, StatusInProgress)
	sess, err := scanSession(row)
	if errors.Is(err, ErrNotFound) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	return sess, true, nil
}

func (s *SQLStore) CountTerminal(ctx context.Context, userID, kind string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM sessions
		WHERE user_id=$1 AND kind=$2 AND status IN ($3,$4)`,
		userID, kind, StatusSubmitted, StatusExpired).Scan(&n)
	return n, err
}

func (s *SQLStore) ListByUser(ctx context.Context, userID string) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,user_id,kind,status,passing_score,attempt_number,score,passed,body_json,started_at,submitted_at,deadline
		FROM sessions WHERE user_id=$1 ORDER BY started_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanSession(row rowScanner) (Session, error) {
	var sess Session
	var body string
	var submittedAt, deadline sql.NullInt64
	err := row.Scan(&sess.ID, &sess.UserID, &sess.Kind, &sess.Status, &sess.PassingScore, &sess.AttemptNumber,
		&sess.Score, &sess.Passed, &body, &sess.StartedAt, &submittedAt, &deadline)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	var r sessionRow
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return Session{}, err
	}
	sess.Questions, sess.Options, sess.Answers = r.Questions, r.Options, r.Answers
	if sess.Answers == nil {
		sess.Answers = map[int]string{}
	}
	sess.SubmittedAt = submittedAt.Int64
	sess.Deadline = deadline.Int64
	return sess, nil
}

func nullableInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
