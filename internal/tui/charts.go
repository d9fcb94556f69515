package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lotas/stimmung/internal/types"
)

// Block characters for sparkline rendering (8 levels).
var sparkBlocks = [8]rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

const (
	barFilled = '█'
	barEmpty  = '░'
)

var (
	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	neutralStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func sentimentStyle(label string) lipgloss.Style {
	switch label {
	case types.SentimentPositive:
		return positiveStyle
	case types.SentimentNegative:
		return negativeStyle
	default:
		return neutralStyle
	}
}

// renderDistribution renders one bar gauge per sentiment label:
//
//	positive [████████░░░░░░░░░░░░]  54.5%  (12)
//
// An empty distribution renders a "no data yet" placeholder instead of three
// zero-length bars.
func renderDistribution(m types.Metrics, barWidth int) string {
	if m.Total == 0 {
		return dimStyle.Render("no data yet")
	}

	var b strings.Builder
	rows := []struct {
		label string
		count int
	}{
		{types.SentimentPositive, m.Positive},
		{types.SentimentNegative, m.Negative},
		{types.SentimentNeutral, m.Neutral},
	}
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		share := float64(row.count) / float64(m.Total)
		filled := int(share * float64(barWidth))
		if row.count > 0 && filled == 0 {
			filled = 1 // non-zero counts always show at least one cell
		}
		bar := strings.Repeat(string(barFilled), filled) +
			strings.Repeat(string(barEmpty), barWidth-filled)
		fmt.Fprintf(&b, "%-8s [%s] %5.1f%%  (%d)",
			row.label, sentimentStyle(row.label).Render(bar), share*100, row.count)
	}
	return b.String()
}

// renderSparkline renders the per-hour post volume as one row of block
// runes, oldest bucket on the left. Buckets beyond width are dropped from
// the left.
func renderSparkline(points []types.TrendPoint, width int) string {
	if len(points) == 0 {
		return dimStyle.Render("no trend data")
	}

	vals := make([]float64, len(points))
	for i, p := range points {
		vals[i] = float64(p.Positive + p.Negative + p.Neutral)
	}
	if len(vals) > width {
		vals = vals[len(vals)-width:]
	}

	minV, maxV := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	var b strings.Builder
	for _, v := range vals {
		level := 0
		if maxV > minV {
			level = int((v - minV) / (maxV - minV) * 7)
			if level > 7 {
				level = 7
			}
		} else if maxV > 0 {
			level = 4 // flat non-zero line
		}
		b.WriteRune(sparkBlocks[level])
	}
	return b.String()
}

// renderEmotions renders the snapshot's top emotion counts on one line.
func renderEmotions(counts map[string]int, order []string) string {
	if len(order) == 0 {
		return ""
	}
	parts := make([]string, 0, len(order))
	for _, name := range order {
		parts = append(parts, fmt.Sprintf("%s %d", name, counts[name]))
	}
	return dimStyle.Render(strings.Join(parts, " · "))
}
