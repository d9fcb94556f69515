package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/lotas/stimmung/internal/archive"
)

// Markdown formats a dashboard view as a markdown document.
func Markdown(doc *archive.Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Sentiment Dashboard — %s\n", doc.Backend)
	fmt.Fprintf(&b, "> Exported %s\n", doc.SavedAt.Format("2006-01-02 15:04"))

	m := doc.Metrics
	fmt.Fprintf(&b, "\n## Distribution (24h)\n\n")
	if m.Total == 0 {
		b.WriteString("No data yet.\n")
	} else {
		fmt.Fprintf(&b, "| Sentiment | Count | Share |\n|---|---|---|\n")
		fmt.Fprintf(&b, "| positive | %d | %.1f%% |\n", m.Positive, pct(m.Positive, m.Total))
		fmt.Fprintf(&b, "| negative | %d | %.1f%% |\n", m.Negative, pct(m.Negative, m.Total))
		fmt.Fprintf(&b, "| neutral | %d | %.1f%% |\n", m.Neutral, pct(m.Neutral, m.Total))
		fmt.Fprintf(&b, "\nTotal: %d posts\n", m.Total)
	}

	if len(doc.TopEmotions) > 0 {
		fmt.Fprintf(&b, "\n## Top emotions\n\n")
		for _, e := range sortedEmotions(doc.TopEmotions) {
			fmt.Fprintf(&b, "- %s: %d\n", e, doc.TopEmotions[e])
		}
	}

	if len(doc.Posts) > 0 {
		n := len(doc.Posts)
		noun := "posts"
		if n == 1 {
			noun = "post"
		}
		fmt.Fprintf(&b, "\n## Feed (%d %s)\n\n", n, noun)
		for _, p := range doc.Posts {
			author := p.Author
			if author == "" {
				author = "unknown"
			}
			fmt.Fprintf(&b, "- **[%s]** @%s (%s, %s): %s\n",
				p.Sentiment, author, p.Source, humanize.Time(p.CreatedAt), oneLine(p.Content))
		}
	}

	return b.String()
}

func pct(n, total int) float64 {
	return float64(n) / float64(total) * 100
}

// sortedEmotions orders emotion names by count descending, name ascending on
// ties, for stable output.
func sortedEmotions(counts map[string]int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
