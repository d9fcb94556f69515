package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/lotas/stimmung/internal/types"
)

// chromeHeight is everything around the feed rows: top bar, summary panel,
// pane borders, bottom bar.
const chromeHeight = 12

var (
	topBarStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	bottomBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1)
	selectedStyle  = lipgloss.NewStyle().Reverse(true)
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))

	paneBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

func (m Model) View() string {
	if m.loading {
		return fmt.Sprintf("\n  %s Loading snapshot from %s...\n", m.spin.View(), m.apiBase)
	}

	if m.showDetail {
		return m.detailView()
	}

	width := m.width
	if width < 40 {
		width = 80
	}

	top := topBarStyle.Render(m.statusLine())
	summary := paneBorder.Width(width - 4).Render(m.summaryView(width - 8))
	feed := paneBorder.Width(width - 4).Render(m.feedView())
	bottom := bottomBarStyle.Render(m.keyHints())

	return lipgloss.JoinVertical(lipgloss.Left, top, summary, feed, bottom)
}

// statusLine is the connection dot, mode, and last-update age.
func (m Model) statusLine() string {
	var conn string
	if m.mode == ModeReplay {
		conn = "Replay (offline)"
	} else {
		switch m.state.Status() {
		case types.StatusConnected:
			conn = positiveStyle.Render("●") + " connected"
		case types.StatusConnecting:
			conn = neutralStyle.Render("◌") + " connecting..."
		case types.StatusDisconnected:
			conn = negativeStyle.Render("○") + " disconnected, retrying"
		}
	}

	updated := "no updates yet"
	if !m.state.LastUpdate().IsZero() {
		updated = "updated " + humanize.Time(m.state.LastUpdate())
	}

	metrics := m.state.Metrics()
	counts := fmt.Sprintf("%d posts · +%d −%d ±%d",
		metrics.Total, metrics.Positive, metrics.Negative, metrics.Neutral)

	return conn + "  ·  " + counts + "  ·  " + updated
}

// summaryView stacks the distribution gauges, the hourly sparkline, and the
// top emotions.
func (m Model) summaryView(width int) string {
	barWidth := 20
	if width < 48 {
		barWidth = 10
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Distribution (24h)"))
	b.WriteByte('\n')
	b.WriteString(renderDistribution(m.state.Metrics(), barWidth))
	b.WriteString("\n\n")
	b.WriteString(titleStyle.Render("Volume by hour"))
	b.WriteByte('\n')
	b.WriteString(renderSparkline(m.state.Trend(), width))

	if emotions := m.state.TopEmotions(); len(emotions) > 0 {
		b.WriteByte('\n')
		b.WriteString(renderEmotions(emotions, emotionOrder(emotions)))
	}
	return b.String()
}

func (m Model) feedView() string {
	feed := m.state.Feed()
	if len(feed) == 0 {
		return dimStyle.Render("waiting for posts...")
	}

	h := m.feedHeight()
	end := m.offset + h
	if end > len(feed) {
		end = len(feed)
	}

	var b strings.Builder
	for i := m.offset; i < end; i++ {
		if i > m.offset {
			b.WriteByte('\n')
		}
		line := m.feedLine(feed[i])
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
	}
	return b.String()
}

func (m Model) feedLine(p types.Post) string {
	dot := sentimentStyle(p.Sentiment).Render("●")
	author := p.Author
	if author == "" {
		author = "unknown"
	}
	age := humanize.Time(p.CreatedAt)

	content := strings.Join(strings.Fields(p.Content), " ")
	// Leave room for the prefix columns.
	max := m.width - 30
	if max < 20 {
		max = 40
	}
	if len(content) > max {
		content = content[:max-1] + "…"
	}

	return fmt.Sprintf("%s %-8s @%s · %s · %s", dot, p.Source, author, age, content)
}

func (m Model) detailView() string {
	feed := m.state.Feed()
	if m.cursor >= len(feed) {
		return "\n  Post no longer in feed. Press esc.\n"
	}
	p := feed[m.cursor]

	var b strings.Builder
	b.WriteString(titleStyle.Render("Post detail"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Author:     @%s\n", p.Author)
	fmt.Fprintf(&b, "Source:     %s\n", p.Source)
	fmt.Fprintf(&b, "Sentiment:  %s (%.0f%% confidence)\n",
		sentimentStyle(p.Sentiment).Render(p.Sentiment), p.Confidence*100)
	if p.Emotion != "" {
		fmt.Fprintf(&b, "Emotion:    %s\n", p.Emotion)
	}
	fmt.Fprintf(&b, "Posted:     %s (%s)\n", p.CreatedAt.Format("2006-01-02 15:04"), humanize.Time(p.CreatedAt))
	b.WriteString("\n")
	b.WriteString(p.Content)
	b.WriteString("\n")

	switch {
	case m.articleLoading:
		fmt.Fprintf(&b, "\n%s\n", dimStyle.Render("fetching "+m.articleURL+"..."))
	case m.articleErr != nil:
		fmt.Fprintf(&b, "\n%s\n", negativeStyle.Render(m.articleErr.Error()))
	case m.articleText != "":
		fmt.Fprintf(&b, "\n%s\n\n%s\n", titleStyle.Render(m.articleTitle), truncate(m.articleText, 2000))
	}

	b.WriteString("\n")
	b.WriteString(bottomBarStyle.Render("o open link · esc back · q quit"))

	width := m.width
	if width < 40 {
		width = 80
	}
	return paneBorder.Width(width - 4).Render(b.String())
}

func (m Model) keyHints() string {
	hints := "↑↓/jk navigate · enter detail · a archive · q quit"
	if m.notice != "" {
		hints += "  " + m.notice
	}
	return hints
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

// emotionOrder sorts emotion names by count descending, name ascending on
// ties, for stable display.
func emotionOrder(counts map[string]int) []string {
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
