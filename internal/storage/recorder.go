package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lotas/stimmung/internal/types"
)

// SessionSummary holds the metadata for one recorded dashboard session.
type SessionSummary struct {
	ID        int64
	Backend   string
	StartedAt time.Time
	EndedAt   *time.Time
	PostCount int
}

// Recorder writes the posts and metrics samples of one live session to the
// database. It observes the dashboard state from the outside; the
// reconciliation core itself persists nothing.
type Recorder struct {
	db        *sql.DB
	sessionID int64
}

// BeginSession inserts a new session row and returns a Recorder bound to it.
func BeginSession(db *sql.DB, backend string) (*Recorder, error) {
	res, err := db.Exec("INSERT INTO sessions (backend) VALUES (?)", backend)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get session id: %w", err)
	}
	return &Recorder{db: db, sessionID: id}, nil
}

// SessionID returns the id of the session being recorded.
func (r *Recorder) SessionID() int64 {
	return r.sessionID
}

// RecordPost stores one accepted post. Re-delivered posts with the same
// non-empty id are silently ignored.
func (r *Recorder) RecordPost(p types.Post) error {
	_, err := r.db.Exec(
		`INSERT OR IGNORE INTO posts (session_id, post_id, author, source, content, sentiment, confidence, emotion, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.sessionID, p.ID, p.Author, p.Source, p.Content, p.Sentiment, p.Confidence, p.Emotion, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	_, err = r.db.Exec(
		"UPDATE sessions SET post_count = (SELECT COUNT(*) FROM posts WHERE session_id = ?) WHERE id = ?",
		r.sessionID, r.sessionID,
	)
	if err != nil {
		return fmt.Errorf("update post count: %w", err)
	}
	return nil
}

// RecordMetrics stores one metrics_update sample.
func (r *Recorder) RecordMetrics(m types.Metrics) error {
	_, err := r.db.Exec(
		"INSERT INTO metrics_samples (session_id, positive, negative, neutral, total) VALUES (?, ?, ?, ?, ?)",
		r.sessionID, m.Positive, m.Negative, m.Neutral, m.Total,
	)
	if err != nil {
		return fmt.Errorf("insert metrics sample: %w", err)
	}
	return nil
}

// End marks the session as finished.
func (r *Recorder) End() error {
	_, err := r.db.Exec("UPDATE sessions SET ended_at = CURRENT_TIMESTAMP WHERE id = ?", r.sessionID)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// ListSessions returns all recorded sessions, newest first.
func ListSessions(db *sql.DB) ([]SessionSummary, error) {
	rows, err := db.Query(
		"SELECT id, backend, started_at, ended_at, post_count FROM sessions ORDER BY started_at DESC, id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var result []SessionSummary
	for rows.Next() {
		var s SessionSummary
		var ended sql.NullTime
		if err := rows.Scan(&s.ID, &s.Backend, &s.StartedAt, &ended, &s.PostCount); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if ended.Valid {
			t := ended.Time
			s.EndedAt = &t
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// SessionPosts loads the recorded posts of one session, newest first.
func SessionPosts(db *sql.DB, sessionID int64) ([]types.Post, error) {
	rows, err := db.Query(
		`SELECT post_id, author, source, content, sentiment, confidence, emotion, created_at
		 FROM posts WHERE session_id = ? ORDER BY id DESC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var result []types.Post
	for rows.Next() {
		var p types.Post
		var created sql.NullTime
		if err := rows.Scan(&p.ID, &p.Author, &p.Source, &p.Content, &p.Sentiment, &p.Confidence, &p.Emotion, &created); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		if created.Valid {
			p.CreatedAt = created.Time
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
