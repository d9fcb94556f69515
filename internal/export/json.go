package export

import (
	"encoding/json"
	"time"

	"github.com/lotas/stimmung/internal/archive"
)

type jsonExport struct {
	Backend    string      `json:"backend"`
	ExportedAt time.Time   `json:"exported_at"`
	Metrics    jsonMetrics `json:"metrics"`
	Trend      []jsonBucket `json:"trend,omitempty"`
	Posts      []jsonPost   `json:"posts,omitempty"`
}

type jsonMetrics struct {
	Positive    int            `json:"positive"`
	Negative    int            `json:"negative"`
	Neutral     int            `json:"neutral"`
	Total       int            `json:"total"`
	TopEmotions map[string]int `json:"top_emotions,omitempty"`
}

type jsonBucket struct {
	Timestamp time.Time `json:"timestamp"`
	Positive  int       `json:"positive"`
	Negative  int       `json:"negative"`
	Neutral   int       `json:"neutral"`
}

type jsonPost struct {
	ID         string    `json:"id,omitempty"`
	Author     string    `json:"author,omitempty"`
	Source     string    `json:"source,omitempty"`
	Content    string    `json:"content"`
	Sentiment  string    `json:"sentiment"`
	Confidence float64   `json:"confidence"`
	Emotion    string    `json:"emotion,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// JSON formats a dashboard view as a JSON document.
func JSON(doc *archive.Document) (string, error) {
	out := jsonExport{
		Backend:    doc.Backend,
		ExportedAt: doc.SavedAt,
		Metrics: jsonMetrics{
			Positive:    doc.Metrics.Positive,
			Negative:    doc.Metrics.Negative,
			Neutral:     doc.Metrics.Neutral,
			Total:       doc.Metrics.Total,
			TopEmotions: doc.TopEmotions,
		},
	}
	for _, b := range doc.Trend {
		out.Trend = append(out.Trend, jsonBucket{
			Timestamp: b.Timestamp,
			Positive:  b.Positive,
			Negative:  b.Negative,
			Neutral:   b.Neutral,
		})
	}
	for _, p := range doc.Posts {
		out.Posts = append(out.Posts, jsonPost{
			ID:         p.ID,
			Author:     p.Author,
			Source:     p.Source,
			Content:    p.Content,
			Sentiment:  p.Sentiment,
			Confidence: p.Confidence,
			Emotion:    p.Emotion,
			CreatedAt:  p.CreatedAt,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}
