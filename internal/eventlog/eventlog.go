// Package eventlog appends progress events to the event_log table after
// each mutating operation, for the admin audit search.
package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"
)

// Event types written by the portal.
const (
	TypeModuleCompleted     = "ModuleCompleted"
	TypeAssessmentStarted   = "AssessmentStarted"
	TypeAssessmentSubmitted = "AssessmentSubmitted"
	TypeCPDActivityRecorded = "CPDActivityRecorded"
	TypeCertificateIssued   = "CertificateIssued"
	TypeTierUpgraded        = "TierUpgraded"
)

type Event struct {
	Type      string `json:"type"`
	Key       string `json:"key"` // natural key: user id or session id
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

type Repo struct{ db *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Append(ctx context.Context, typ, key string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		typ, key, string(buf), time.Now().Unix())
	return err
}

// Log appends best-effort: a failed audit write never blocks the
// operation it describes.
func (r *Repo) Log(ctx context.Context, typ, key string, data any) {
	if err := r.Append(ctx, typ, key, data); err != nil {
		log.Printf("eventlog: append %s/%s: %v", typ, key, err)
	}
}

// Search returns the newest events whose type or key matches q.
func (r *Repo) Search(ctx context.Context, q string, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT typ, key, data, created_at FROM event_log
		 WHERE typ LIKE '%'||$1||'%' OR key LIKE '%'||$1||'%'
		 ORDER BY created_at DESC LIMIT $2`, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
