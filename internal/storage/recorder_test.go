package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/lotas/stimmung/internal/types"
)

func testDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "stimmung.db")
}

func TestOpenDBRunsMigrations(t *testing.T) {
	path := testDB(t)
	db, err := OpenDB(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.Close()

	// Reopening must be a no-op for already applied migrations.
	db, err = OpenDB(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("query migrations: %v", err)
	}
	if count != len(migrations) {
		t.Errorf("applied migrations = %d, want %d", count, len(migrations))
	}
}

func TestRecordAndListSession(t *testing.T) {
	db, err := OpenDB(testDB(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	rec, err := BeginSession(db, "http://localhost:8000/api")
	if err != nil {
		t.Fatalf("begin session: %v", err)
	}

	posts := []types.Post{
		{ID: "p-1", Author: "alice", Source: "twitter", Content: "first", Sentiment: "positive", Confidence: 0.9, Emotion: "joy", CreatedAt: time.Now()},
		{ID: "p-2", Author: "bob", Source: "reddit", Content: "second", Sentiment: "negative", Confidence: 0.7, CreatedAt: time.Now()},
	}
	for _, p := range posts {
		if err := rec.RecordPost(p); err != nil {
			t.Fatalf("record post: %v", err)
		}
	}
	// Re-delivery of an identified post is ignored.
	if err := rec.RecordPost(posts[0]); err != nil {
		t.Fatalf("record duplicate: %v", err)
	}

	if err := rec.RecordMetrics(types.Metrics{Positive: 1, Negative: 1, Neutral: 0, Total: 2}); err != nil {
		t.Fatalf("record metrics: %v", err)
	}
	if err := rec.End(); err != nil {
		t.Fatalf("end session: %v", err)
	}

	sessions, err := ListSessions(db)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(sessions))
	}
	s := sessions[0]
	if s.PostCount != 2 {
		t.Errorf("post count = %d, want 2 (duplicate ignored)", s.PostCount)
	}
	if s.EndedAt == nil {
		t.Error("ended_at not set")
	}

	got, err := SessionPosts(db, rec.SessionID())
	if err != nil {
		t.Fatalf("session posts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("posts = %d, want 2", len(got))
	}
	// Newest first.
	if got[0].ID != "p-2" || got[1].ID != "p-1" {
		t.Errorf("order = [%s %s], want [p-2 p-1]", got[0].ID, got[1].ID)
	}
	if got[1].Emotion != "joy" {
		t.Errorf("emotion = %q, want joy", got[1].Emotion)
	}
}

func TestUnidentifiedPostsAllRecorded(t *testing.T) {
	db, err := OpenDB(testDB(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	rec, err := BeginSession(db, "test")
	if err != nil {
		t.Fatalf("begin session: %v", err)
	}

	// Posts without an id carry no identity and are never collapsed.
	for i := 0; i < 3; i++ {
		if err := rec.RecordPost(types.Post{Content: "same", Sentiment: "neutral"}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := SessionPosts(db, rec.SessionID())
	if err != nil {
		t.Fatalf("session posts: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("posts = %d, want 3", len(got))
	}
}
