package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/lotas/stimmung/internal/types"
)

func TestRenderDistributionNoData(t *testing.T) {
	// An empty window must present an explicit no-data state, not three
	// empty bars.
	out := renderDistribution(types.Metrics{}, 20)
	if !strings.Contains(out, "no data yet") {
		t.Errorf("empty metrics rendered %q, want the no-data state", out)
	}
	if strings.ContainsRune(out, barEmpty) {
		t.Error("empty metrics should not render bars")
	}
}

func TestRenderDistribution(t *testing.T) {
	out := renderDistribution(types.Metrics{Positive: 10, Negative: 5, Neutral: 5, Total: 20}, 20)

	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if !strings.Contains(lines[0], "positive") || !strings.Contains(lines[0], "50.0%") {
		t.Errorf("positive row = %q", lines[0])
	}
	if !strings.Contains(lines[1], "negative") || !strings.Contains(lines[1], "25.0%") {
		t.Errorf("negative row = %q", lines[1])
	}
	if !strings.Contains(lines[0], "(10)") {
		t.Errorf("positive row missing count: %q", lines[0])
	}
}

func TestRenderDistributionTinyShareStillVisible(t *testing.T) {
	out := renderDistribution(types.Metrics{Positive: 1, Negative: 0, Neutral: 999, Total: 1000}, 10)
	lines := strings.Split(out, "\n")
	if !strings.Contains(lines[0], string(barFilled)) {
		t.Error("a non-zero count should render at least one filled cell")
	}
}

func TestRenderSparkline(t *testing.T) {
	base := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	points := []types.TrendPoint{
		{Timestamp: base, Positive: 0, Negative: 0, Neutral: 0},
		{Timestamp: base.Add(time.Hour), Positive: 5, Negative: 3, Neutral: 2},
		{Timestamp: base.Add(2 * time.Hour), Positive: 2, Negative: 1, Neutral: 2},
	}

	out := renderSparkline(points, 40)
	runes := []rune(out)
	if len(runes) != 3 {
		t.Fatalf("got %d cells, want 3", len(runes))
	}
	if runes[0] != sparkBlocks[0] {
		t.Errorf("zero bucket = %c, want %c", runes[0], sparkBlocks[0])
	}
	if runes[1] != sparkBlocks[7] {
		t.Errorf("max bucket = %c, want %c", runes[1], sparkBlocks[7])
	}
}

func TestRenderSparklineEmpty(t *testing.T) {
	if out := renderSparkline(nil, 40); !strings.Contains(out, "no trend data") {
		t.Errorf("got %q, want the empty placeholder", out)
	}
}

func TestRenderSparklineClipsToWidth(t *testing.T) {
	base := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	var points []types.TrendPoint
	for i := 0; i < 24; i++ {
		points = append(points, types.TrendPoint{Timestamp: base.Add(time.Duration(i) * time.Hour), Positive: i})
	}

	out := renderSparkline(points, 10)
	if got := len([]rune(out)); got != 10 {
		t.Errorf("width = %d, want 10 (newest buckets kept)", got)
	}
}

func TestEmotionOrder(t *testing.T) {
	counts := map[string]int{"joy": 7, "anger": 3, "fear": 7}
	got := emotionOrder(counts)
	want := []string{"fear", "joy", "anger"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}
