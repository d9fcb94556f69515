package archive

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lotas/stimmung/internal/types"
)

func sampleDoc() *Document {
	return &Document{
		SavedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Backend: "http://localhost:8000/api",
		Metrics: types.Metrics{Positive: 12, Negative: 5, Neutral: 5, Total: 22},
		Trend: []types.TrendPoint{
			{Timestamp: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC), Positive: 3, Negative: 1, Neutral: 2},
		},
		Posts: []types.Post{
			{ID: "p-1", Author: "alice", Content: strings.Repeat("sentiment ", 50), Source: "twitter", Sentiment: "positive", Confidence: 0.9},
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.stz")
	want := sampleDoc()

	if err := WriteFile(path, want); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if got.Metrics != want.Metrics {
		t.Errorf("metrics = %+v, want %+v", got.Metrics, want.Metrics)
	}
	if len(got.Posts) != 1 || got.Posts[0].ID != "p-1" {
		t.Errorf("posts = %+v", got.Posts)
	}
	if len(got.Trend) != 1 || got.Trend[0].Positive != 3 {
		t.Errorf("trend = %+v", got.Trend)
	}
	if !got.SavedAt.Equal(want.SavedAt) {
		t.Errorf("saved_at = %v, want %v", got.SavedAt, want.SavedAt)
	}
}

func TestDecodeRejectsBadData(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"too short", []byte("stm")},
		{"wrong magic", append([]byte("notLz41\x00"), make([]byte, 8)...)},
		{"garbage block", append(append([]byte("stmLz41\x00"), 0x10, 0, 0, 0), []byte("garbage!")...)},
	}
	for _, c := range cases {
		if _, err := Decode(c.data); err == nil {
			t.Errorf("%s: expected decode error", c.name)
		}
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "absent.stz")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
