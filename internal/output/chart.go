package output

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/sdpower/ctxgw-report/internal/types"
)

// RenderDailyChart plots tokens per active day in date order. It needs at
// least two days to draw a line.
func RenderDailyChart(days []types.DayTotal, width, height int, noColor bool) string {
	if len(days) < 2 {
		return ""
	}

	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	data := make([]float64, len(days))
	for i, d := range days {
		data[i] = float64(d.Tokens)
	}

	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(0),
		asciigraph.Caption(fmt.Sprintf("tokens/day  %s .. %s", days[0].Date, days[len(days)-1].Date)),
	}
	if !noColor {
		opts = append(opts, asciigraph.SeriesColors(asciigraph.Cyan))
	}

	return indent(asciigraph.Plot(data, opts...), "  ")
}

// RenderSparkline draws values as a single line of block characters.
func RenderSparkline(values []int) string {
	if len(values) == 0 {
		return ""
	}

	sparkChars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	maxVal := 0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	var result strings.Builder
	for _, v := range values {
		level := v * (len(sparkChars) - 1) / maxVal
		if level < 0 {
			level = 0
		}
		result.WriteRune(sparkChars[level])
	}
	return result.String()
}

// DailyTable lists each active day with its token total and a sparkline
// column scaled to the busiest day.
func DailyTable(days []types.DayTotal) string {
	if len(days) == 0 {
		return ""
	}

	maxTokens := 0
	for _, d := range days {
		if d.Tokens > maxTokens {
			maxTokens = d.Tokens
		}
	}

	var output strings.Builder
	for _, d := range days {
		width := 0
		if maxTokens > 0 {
			width = d.Tokens * 30 / maxTokens
		}
		fmt.Fprintf(&output, "  %s  %s  %s\n", d.Date, padLeft(FormatTokens(d.Tokens), 8), strings.Repeat("▇", width))
	}
	return output.String()
}
