package export

import (
	"strings"
	"testing"
	"time"

	"github.com/lotas/stimmung/internal/archive"
	"github.com/lotas/stimmung/internal/types"
)

func testDoc() *archive.Document {
	return &archive.Document{
		SavedAt:     time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Backend:     "http://localhost:8000/api",
		Metrics:     types.Metrics{Positive: 12, Negative: 5, Neutral: 5, Total: 22},
		TopEmotions: map[string]int{"joy": 7, "anger": 3},
		Posts: []types.Post{
			{ID: "p-1", Author: "alice", Source: "twitter", Content: "line one\nline two", Sentiment: "positive", Confidence: 0.9, CreatedAt: time.Now().Add(-time.Hour)},
		},
	}
}

func TestMarkdown(t *testing.T) {
	out := Markdown(testDoc())

	for _, want := range []string{
		"# Sentiment Dashboard",
		"| positive | 12 | 54.5% |",
		"Total: 22 posts",
		"- joy: 7",
		"@alice (twitter,",
		"line one line two", // newlines collapsed
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestMarkdownEmptyDistribution(t *testing.T) {
	doc := &archive.Document{Backend: "test", SavedAt: time.Now()}
	out := Markdown(doc)
	if !strings.Contains(out, "No data yet.") {
		t.Errorf("empty distribution should render the no-data state:\n%s", out)
	}
}

func TestMarkdownSortsEmotions(t *testing.T) {
	doc := testDoc()
	out := Markdown(doc)
	if strings.Index(out, "- joy: 7") > strings.Index(out, "- anger: 3") {
		t.Error("emotions not sorted by count descending")
	}
}
