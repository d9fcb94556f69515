package export

import (
	"encoding/json"
	"testing"
)

func TestJSON(t *testing.T) {
	out, err := JSON(testDoc())
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	var parsed struct {
		Backend string `json:"backend"`
		Metrics struct {
			Total       int            `json:"total"`
			TopEmotions map[string]int `json:"top_emotions"`
		} `json:"metrics"`
		Posts []struct {
			ID        string `json:"id"`
			Sentiment string `json:"sentiment"`
		} `json:"posts"`
	}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed.Metrics.Total != 22 {
		t.Errorf("total = %d, want 22", parsed.Metrics.Total)
	}
	if parsed.Metrics.TopEmotions["joy"] != 7 {
		t.Errorf("top_emotions = %v", parsed.Metrics.TopEmotions)
	}
	if len(parsed.Posts) != 1 || parsed.Posts[0].ID != "p-1" {
		t.Errorf("posts = %+v", parsed.Posts)
	}
}
