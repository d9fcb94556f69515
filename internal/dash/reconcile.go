package dash

import (
	"encoding/json"
	"time"

	"github.com/lotas/stimmung/internal/applog"
	"github.com/lotas/stimmung/internal/stream"
	"github.com/lotas/stimmung/internal/types"
)

// Wire payloads for the two accepted event kinds, matching the backend's
// push frames.

type wirePost struct {
	PostID     string   `json:"post_id"`
	Content    string   `json:"content"`
	Source     string   `json:"source"`
	Author     string   `json:"author"`
	Label      *string  `json:"sentiment_label"`
	Confidence *float64 `json:"confidence_score"`
	Emotion    string   `json:"emotion"`
	Timestamp  string   `json:"timestamp"`
}

type wireCounts struct {
	Positive *int `json:"positive"`
	Negative *int `json:"negative"`
	Neutral  *int `json:"neutral"`
	Total    *int `json:"total"`
}

type wireMetrics struct {
	wireCounts
	LastMinute *wireCounts `json:"last_minute"`
	LastHour   *wireCounts `json:"last_hour"`
	Last24h    *wireCounts `json:"last_24_hours"`
}

// Apply reconciles one push event into the state. It returns true if the
// event was accepted. Accepted events advance LastUpdate to their receipt
// time; unknown kinds and structurally invalid payloads are dropped and
// leave the state untouched.
//
// new_post only touches the feed; metrics come exclusively from
// metrics_update, which replaces them wholesale — the server is the single
// source of truth for aggregate counts, so the client never does count
// arithmetic of its own.
func (s *State) Apply(ev stream.Event) bool {
	switch ev.Type {
	case "new_post":
		post, ok := parsePost(ev.Data)
		if !ok {
			applog.Error("reconcile.new_post", errInvalidPayload)
			return false
		}
		s.pushPost(post)

	case "metrics_update":
		metrics, windows, ok := parseMetrics(ev.Data)
		if !ok {
			applog.Error("reconcile.metrics_update", errInvalidPayload)
			return false
		}
		s.metrics = metrics
		s.windows = windows
		s.metricsLive = true

	default:
		// Unknown kinds are ignored for forward compatibility
		// (e.g. the backend's "connected" greeting).
		return false
	}

	at := ev.ReceivedAt
	if at.IsZero() {
		at = time.Now()
	}
	s.touch(at)
	s.notify()
	return true
}

var errInvalidPayload = jsonError("payload failed structural check")

type jsonError string

func (e jsonError) Error() string { return string(e) }

// parsePost validates the structural shape of a new_post payload: it must be
// a JSON object carrying a sentiment label. Everything else is optional —
// a post without an ID is kept but never deduplicated.
func parsePost(data json.RawMessage) (types.Post, bool) {
	var w wirePost
	if err := json.Unmarshal(data, &w); err != nil {
		return types.Post{}, false
	}
	if w.Label == nil {
		return types.Post{}, false
	}
	created := time.Now()
	if w.Timestamp != "" {
		if t, err := parseEventTime(w.Timestamp); err == nil {
			created = t
		}
	}
	confidence := 0.0
	if w.Confidence != nil {
		confidence = *w.Confidence
	}
	return types.Post{
		ID:         w.PostID,
		Author:     w.Author,
		Content:    w.Content,
		Source:     w.Source,
		Sentiment:  *w.Label,
		Confidence: confidence,
		Emotion:    w.Emotion,
		CreatedAt:  created,
	}, true
}

// parseMetrics accepts either a bare counts object or the backend's
// three-window form; in the latter case the 24h window becomes the primary
// metrics value. All four count fields must be present for a window to be
// structurally valid.
func parseMetrics(data json.RawMessage) (types.Metrics, types.MetricsWindows, bool) {
	var w wireMetrics
	if err := json.Unmarshal(data, &w); err != nil {
		return types.Metrics{}, types.MetricsWindows{}, false
	}

	if w.Last24h != nil {
		primary, ok := w.Last24h.toMetrics()
		if !ok {
			return types.Metrics{}, types.MetricsWindows{}, false
		}
		windows := types.MetricsWindows{Last24h: primary}
		if w.LastMinute != nil {
			windows.LastMinute, _ = w.LastMinute.toMetrics()
		}
		if w.LastHour != nil {
			windows.LastHour, _ = w.LastHour.toMetrics()
		}
		return primary, windows, true
	}

	primary, ok := w.wireCounts.toMetrics()
	if !ok {
		return types.Metrics{}, types.MetricsWindows{}, false
	}
	return primary, types.MetricsWindows{Last24h: primary}, true
}

func (w *wireCounts) toMetrics() (types.Metrics, bool) {
	if w.Positive == nil || w.Negative == nil || w.Neutral == nil || w.Total == nil {
		return types.Metrics{}, false
	}
	return types.Metrics{
		Positive: *w.Positive,
		Negative: *w.Negative,
		Neutral:  *w.Neutral,
		Total:    *w.Total,
	}, true
}

func parseEventTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}
