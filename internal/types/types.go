package types

import "time"

// Sentiment labels as produced by the analysis worker.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Post is a single classified social-media post. Immutable once received.
// Identity is ID; posts without an ID are never deduplicated.
type Post struct {
	ID         string
	Author     string
	Content    string
	Source     string // e.g. "twitter", "reddit"
	Sentiment  string // positive, negative, neutral
	Confidence float64
	Emotion    string // optional secondary label, may be empty
	CreatedAt  time.Time
}

// Metrics is an aggregate sentiment count snapshot for one time window.
type Metrics struct {
	Positive int
	Negative int
	Neutral  int
	Total    int
}

// Consistent reports whether the per-label counts add up to the total.
func (m Metrics) Consistent() bool {
	return m.Positive+m.Negative+m.Neutral == m.Total
}

// MetricsWindows holds the three rolling windows the backend pushes
// with every metrics_update.
type MetricsWindows struct {
	LastMinute Metrics
	LastHour   Metrics
	Last24h    Metrics
}

// TrendPoint is one hourly bucket of sentiment counts.
type TrendPoint struct {
	Timestamp time.Time
	Positive  int
	Negative  int
	Neutral   int
}

// Status is the push-channel connection state.
type Status int

const (
	StatusConnecting Status = iota
	StatusConnected
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	}
	return "unknown"
}
