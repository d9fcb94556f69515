package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lotas/stimmung/internal/applog"
	"github.com/lotas/stimmung/internal/types"
	"golang.org/x/sync/errgroup"
)

// Snapshot is the merged result of the three initial reads. Sections whose
// request failed are left at their zero value.
type Snapshot struct {
	Metrics     types.Metrics
	TopEmotions map[string]int
	Trend       []types.TrendPoint
	Posts       []types.Post
	LoadedAt    time.Time
}

// Client reads the backend REST API.
type Client struct {
	base string
	http *http.Client
}

// New creates a Client for the given base URL (no trailing slash),
// e.g. "http://localhost:8000/api".
func New(base string) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// LoadSnapshot issues the three snapshot reads concurrently: the 24h
// distribution, the hourly trend, and the 50 most recent posts. A failed
// request is logged and leaves its section empty; LoadSnapshot itself
// never fails. Responses arriving after ctx is cancelled are discarded.
func (c *Client) LoadSnapshot(ctx context.Context) *Snapshot {
	snap := &Snapshot{LoadedAt: time.Now()}

	var g errgroup.Group
	g.Go(func() error {
		m, emotions, err := c.Distribution(ctx, 24)
		if err != nil {
			applog.Error("fetch.distribution", err)
			return nil
		}
		snap.Metrics = m
		snap.TopEmotions = emotions
		return nil
	})
	g.Go(func() error {
		trend, err := c.Trend(ctx)
		if err != nil {
			applog.Error("fetch.trend", err)
			return nil
		}
		snap.Trend = trend
		return nil
	})
	g.Go(func() error {
		posts, err := c.RecentPosts(ctx, 50)
		if err != nil {
			applog.Error("fetch.posts", err)
			return nil
		}
		snap.Posts = posts
		return nil
	})
	g.Wait()

	applog.Info("snapshot.loaded",
		"total", snap.Metrics.Total,
		"trend", len(snap.Trend),
		"posts", len(snap.Posts),
	)
	return snap
}

// Wire types for the backend's JSON responses.

type wireDistribution struct {
	Distribution struct {
		Positive int `json:"positive"`
		Negative int `json:"negative"`
		Neutral  int `json:"neutral"`
	} `json:"distribution"`
	Total       int            `json:"total"`
	TopEmotions map[string]int `json:"top_emotions"`
}

type wireAggregate struct {
	Data []struct {
		Timestamp     string `json:"timestamp"`
		PositiveCount int    `json:"positive_count"`
		NegativeCount int    `json:"negative_count"`
		NeutralCount  int    `json:"neutral_count"`
	} `json:"data"`
}

type wirePost struct {
	PostID    string `json:"post_id"`
	Source    string `json:"source"`
	Content   string `json:"content"`
	Author    string `json:"author"`
	CreatedAt string `json:"created_at"`
	Sentiment struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
		Emotion    string  `json:"emotion"`
	} `json:"sentiment"`
}

type wirePosts struct {
	Posts []wirePost `json:"posts"`
}

// Distribution fetches the aggregate sentiment counts for a trailing window
// of the given number of hours.
func (c *Client) Distribution(ctx context.Context, hours int) (types.Metrics, map[string]int, error) {
	var wire wireDistribution
	url := fmt.Sprintf("%s/sentiment/distribution?hours=%d", c.base, hours)
	if err := c.getJSON(ctx, url, &wire); err != nil {
		return types.Metrics{}, nil, err
	}
	m := types.Metrics{
		Positive: wire.Distribution.Positive,
		Negative: wire.Distribution.Negative,
		Neutral:  wire.Distribution.Neutral,
		Total:    wire.Total,
	}
	return m, wire.TopEmotions, nil
}

// Trend fetches the hourly sentiment buckets for the trailing 24 hours,
// ordered oldest first.
func (c *Client) Trend(ctx context.Context) ([]types.TrendPoint, error) {
	var wire wireAggregate
	url := c.base + "/sentiment/aggregate?period=hour"
	if err := c.getJSON(ctx, url, &wire); err != nil {
		return nil, err
	}
	points := make([]types.TrendPoint, 0, len(wire.Data))
	for _, b := range wire.Data {
		ts, err := parseTime(b.Timestamp)
		if err != nil {
			continue // skip buckets with unparseable timestamps
		}
		points = append(points, types.TrendPoint{
			Timestamp: ts,
			Positive:  b.PositiveCount,
			Negative:  b.NegativeCount,
			Neutral:   b.NeutralCount,
		})
	}
	return points, nil
}

// RecentPosts fetches the most recent classified posts, newest first.
func (c *Client) RecentPosts(ctx context.Context, limit int) ([]types.Post, error) {
	var wire wirePosts
	url := fmt.Sprintf("%s/posts?limit=%d", c.base, limit)
	if err := c.getJSON(ctx, url, &wire); err != nil {
		return nil, err
	}
	posts := make([]types.Post, 0, len(wire.Posts))
	for _, p := range wire.Posts {
		posts = append(posts, p.toPost())
	}
	return posts, nil
}

func (p wirePost) toPost() types.Post {
	created, _ := parseTime(p.CreatedAt)
	return types.Post{
		ID:         p.PostID,
		Author:     p.Author,
		Content:    p.Content,
		Source:     p.Source,
		Sentiment:  p.Sentiment.Label,
		Confidence: p.Sentiment.Confidence,
		Emotion:    p.Sentiment.Emotion,
		CreatedAt:  created,
	}
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", url, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// parseTime handles the backend's timestamps, which come either with a zone
// (RFC 3339) or as naive UTC.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}
