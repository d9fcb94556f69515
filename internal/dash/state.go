// Package dash holds the reconciled dashboard state: one REST snapshot seeded
// at startup, then a stream of push events applied in arrival order. Only the
// snapshot seed and the reconciler mutate it; everything else reads.
//
// State carries no lock. All mutation happens on the program's single update
// loop; the stream and snapshot goroutines hand their results over through
// channels.
package dash

import (
	"time"

	"github.com/lotas/stimmung/internal/types"
)

// FeedLimit bounds the recent-posts feed.
const FeedLimit = 50

// State is the render-ready view of the sentiment pipeline.
type State struct {
	metrics     types.Metrics
	windows     types.MetricsWindows
	topEmotions map[string]int
	trend       []types.TrendPoint
	feed        []types.Post // newest first, at most FeedLimit
	status      types.Status
	lastUpdate  time.Time

	// metricsLive flips once a metrics_update has been applied. A snapshot
	// that lands after that is stale and must not win.
	metricsLive bool

	observers []func()
}

// NewState creates an empty session state. The connection starts out as
// connecting — the stream client dials immediately.
func NewState() *State {
	return &State{status: types.StatusConnecting}
}

// Subscribe registers fn to be called synchronously after every change.
func (s *State) Subscribe(fn func()) {
	s.observers = append(s.observers, fn)
}

func (s *State) notify() {
	for _, fn := range s.observers {
		fn()
	}
}

// Metrics returns the authoritative aggregate counts (trailing 24h window).
func (s *State) Metrics() types.Metrics { return s.metrics }

// Windows returns the per-window counts from the latest metrics_update.
// Zero until the first update arrives.
func (s *State) Windows() types.MetricsWindows { return s.windows }

// TopEmotions returns the emotion counts from the snapshot, or nil.
func (s *State) TopEmotions() map[string]int { return s.topEmotions }

// Trend returns the hourly buckets, oldest first.
func (s *State) Trend() []types.TrendPoint { return s.trend }

// Feed returns a copy of the recent-posts feed, newest first.
func (s *State) Feed() []types.Post {
	out := make([]types.Post, len(s.feed))
	copy(out, s.feed)
	return out
}

// FeedLen returns the current feed length without copying.
func (s *State) FeedLen() int { return len(s.feed) }

// Status returns the push-channel connection state.
func (s *State) Status() types.Status { return s.status }

// LastUpdate returns the receipt time of the last accepted event, or the
// snapshot load time if no event has arrived yet.
func (s *State) LastUpdate() time.Time { return s.lastUpdate }

// SetStatus records a connection-state transition.
func (s *State) SetStatus(st types.Status) {
	if s.status == st {
		return
	}
	s.status = st
	s.notify()
}

// SeedMetrics applies the snapshot's aggregate counts as the baseline. It is
// a no-op once a metrics_update has been applied: the push channel is newer
// than any in-flight snapshot, so a late response must not roll metrics back.
func (s *State) SeedMetrics(m types.Metrics, topEmotions map[string]int) {
	if s.metricsLive {
		return
	}
	s.metrics = m
	s.topEmotions = topEmotions
	s.touch(time.Now())
	s.notify()
}

// SeedTrend applies the snapshot's hourly buckets.
func (s *State) SeedTrend(points []types.TrendPoint) {
	s.trend = points
	s.notify()
}

// SeedFeed merges the snapshot's post history into the feed. Posts that were
// already pushed over the stream stay ahead of snapshot history and are not
// duplicated; posts without an ID are never deduplicated. The feed stays
// bounded at FeedLimit.
func (s *State) SeedFeed(history []types.Post) {
	seen := make(map[string]bool, len(s.feed))
	for _, p := range s.feed {
		if p.ID != "" {
			seen[p.ID] = true
		}
	}
	for _, p := range history {
		if len(s.feed) >= FeedLimit {
			break
		}
		if p.ID != "" && seen[p.ID] {
			continue
		}
		s.feed = append(s.feed, p)
	}
	s.touch(time.Now())
	s.notify()
}

// pushPost prepends a streamed post and evicts the oldest entries beyond
// FeedLimit.
func (s *State) pushPost(p types.Post) {
	s.feed = append([]types.Post{p}, s.feed...)
	if len(s.feed) > FeedLimit {
		s.feed = s.feed[:FeedLimit]
	}
}

func (s *State) touch(t time.Time) {
	if t.After(s.lastUpdate) {
		s.lastUpdate = t
	}
}
