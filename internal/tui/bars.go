package tui

import (
	"fmt"
	"strconv"
	"strings"

	"gapdash/internal/view"

	"github.com/charmbracelet/lipgloss"
)

// BarChart draws the bar traces of fig as horizontal text bars scaled to
// width cells. Non-bar figures render as "".
func BarChart(fig view.Figure, width int, styles Styles) string {
	type bar struct {
		label string
		value float64
	}
	var bars []bar
	maxV := 0.0
	labelW := 0
	for _, tr := range fig.Data {
		if tr.Type != "bar" || len(tr.Y) == 0 {
			continue
		}
		b := bar{label: tr.Name, value: tr.Y[0]}
		if b.value > maxV {
			maxV = b.value
		}
		if w := lipgloss.Width(b.label); w > labelW {
			labelW = w
		}
		bars = append(bars, b)
	}
	if len(bars) == 0 {
		return ""
	}

	room := width - labelW - 16
	if room < 10 {
		room = 10
	}

	var sb strings.Builder
	if fig.Layout.Title != nil {
		sb.WriteString(styles.Title.Render(fig.Layout.Title.Text))
		sb.WriteString("\n")
	}
	for _, b := range bars {
		n := 0
		if maxV > 0 {
			n = int(b.value / maxV * float64(room))
		}
		if n == 0 && b.value > 0 {
			n = 1
		}
		sb.WriteString(fmt.Sprintf("%-*s ", labelW, b.label))
		sb.WriteString(styles.Bar.Render(strings.Repeat("█", n)))
		sb.WriteString(" " + styles.Muted.Render(formatValue(b.value)))
		sb.WriteString("\n")
	}
	return sb.String()
}

// ChoroplethSummary lists the location mode and the highest values of a
// choropleth figure, since terminals cannot draw the map.
func ChoroplethSummary(fig view.Figure, top int, styles Styles) string {
	if len(fig.Data) == 0 || fig.Data[0].Type != "choropleth" {
		return ""
	}
	tr := fig.Data[0]
	idx := make([]int, len(tr.Z))
	for i := range idx {
		idx[i] = i
	}
	// insertion sort keeps equal values in dataset order
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && tr.Z[idx[j]] > tr.Z[idx[j-1]]; j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}
	if top > 0 && len(idx) > top {
		idx = idx[:top]
	}

	var sb strings.Builder
	if fig.Layout.Title != nil {
		sb.WriteString(styles.Title.Render(fig.Layout.Title.Text))
		sb.WriteString("\n")
	}
	sb.WriteString(styles.Muted.Render(fmt.Sprintf("%d locations by %s", len(tr.Locations), tr.LocationMode)))
	sb.WriteString("\n")
	for rank, i := range idx {
		name := tr.Locations[i]
		if i < len(tr.HoverText) && tr.HoverText[i] != name {
			name = fmt.Sprintf("%s (%s)", tr.HoverText[i], name)
		}
		sb.WriteString(fmt.Sprintf("%2d. %s %s\n", rank+1, name, styles.Muted.Render(formatValue(tr.Z[i]))))
	}
	return sb.String()
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
