package output

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/sdpower/ctxgw-report/internal/types"
)

// recentDays is how many of the latest active days are listed under the chart.
const recentDays = 7

// Section is one titled block of the rendered report.
type Section struct {
	Title string
	Body  string
}

// TableWriterFormatter renders a report as terminal tables
type TableWriterFormatter struct {
	noColor bool
	style   styler
}

func NewTableWriterFormatter(noColor bool) *TableWriterFormatter {
	return &TableWriterFormatter{
		noColor: noColor,
		style:   styler{noColor: noColor},
	}
}

// FormatReport renders every section that has data, business summary first.
func (f *TableWriterFormatter) FormatReport(report types.Report) string {
	sections := f.Sections(report)
	if len(sections) == 0 {
		return f.formatEmptyReport()
	}

	var output strings.Builder
	for _, s := range sections {
		output.WriteString("\n")
		output.WriteString(f.style.header(s.Title))
		output.WriteString("\n\n")
		output.WriteString(s.Body)
	}
	return output.String()
}

// Sections returns the report split into titled blocks. Absent aggregates
// produce no section.
func (f *TableWriterFormatter) Sections(report types.Report) []Section {
	var sections []Section

	if report.Tokens != nil {
		sections = append(sections, Section{"Bottom Line", f.formatBusinessSummary(*report.Tokens, report.Sizes)})
	}
	if report.Daily != nil {
		sections = append(sections, Section{"Daily Usage (Active Days Only)", f.formatDaily(*report.Daily)})
	}
	if report.Tokens != nil {
		sections = append(sections, Section{"Token Savings", f.formatTokens(*report.Tokens)})
	}
	if report.Sizes != nil {
		sections = append(sections,
			Section{"Size Distribution", f.formatSizes(*report.Sizes)},
			Section{"By Tool", f.formatTools(*report.Sizes)},
		)
		if len(report.Sizes.Thresholds) > 0 {
			sections = append(sections, Section{"Threshold Analysis", f.formatThresholds(*report.Sizes)})
		}
	}

	return sections
}

func (f *TableWriterFormatter) formatBusinessSummary(tokens types.TokenStats, sizes *types.SizeStats) string {
	var output strings.Builder

	saved := tokens.TotalMoneySaved
	cost := 0.0
	if sizes != nil {
		cost = sizes.CompressionCost
	}

	fmt.Fprintf(&output, "  Saved on main models    %10s\n", FormatMoney(saved))
	if cost > 0 {
		fmt.Fprintf(&output, "  Compression cost        %10s  %s\n", FormatMoney(cost), f.style.muted("(compressor API calls)"))
		output.WriteString("                          ──────────\n")
		fmt.Fprintf(&output, "  Net savings             %10s\n", FormatMoney(saved-cost))
	}
	output.WriteString("\n")

	if cost > 0 {
		fmt.Fprintf(&output, "  Every $1 spent on compression saves $%s on the main model\n", formatNumberWithCommas(int(saved/cost+0.5)))
	}
	fmt.Fprintf(&output, "  %s tokens saved across %s compressed requests\n",
		FormatTokens(tokens.TotalSavedTokens), formatNumberWithCommas(tokens.CompressedRequests))

	if tokens.TotalShadows > 0 {
		sufficiency := (1 - float64(tokens.TotalExpands)/float64(tokens.TotalShadows)) * 100
		fmt.Fprintf(&output, "  %s compressions delivered, %d needed the original (%s good enough)\n",
			formatNumberWithCommas(tokens.TotalShadows), tokens.TotalExpands, FormatPercent(sufficiency))
	}

	if sizes != nil && len(sizes.Ratios) > 0 {
		fmt.Fprintf(&output, "  Average output compressed to %s of original size\n", FormatPercent(meanFloats(sizes.Ratios)*100))
	}

	output.WriteString("\n")
	return output.String()
}

func (f *TableWriterFormatter) formatDaily(stats types.DailyStats) string {
	var output strings.Builder

	fmt.Fprintf(&output, "  Active days    %8s   %s\n", formatNumberWithCommas(stats.ActiveDays), f.style.muted("(days with any token usage)"))
	fmt.Fprintf(&output, "  Avg per day    %8s\n", FormatTokens(int(stats.AvgTokensPerDay)))
	fmt.Fprintf(&output, "  Median         %8s\n", FormatTokens(int(stats.MedianTokensPerDay)))
	fmt.Fprintf(&output, "  Range          %8s - %s\n", FormatTokens(stats.MinTokensPerDay), FormatTokens(stats.MaxTokensPerDay))

	trend := make([]int, len(stats.Days))
	for i, d := range stats.Days {
		trend[i] = d.Tokens
	}
	if len(trend) > 1 {
		fmt.Fprintf(&output, "  Trend          %s\n", RenderSparkline(trend))
	}
	output.WriteString("\n")

	if chart := RenderDailyChart(stats.Days, 60, 8, f.noColor); chart != "" {
		output.WriteString(chart)
		output.WriteString("\n\n")
	}

	recent := stats.Days
	if len(recent) > recentDays {
		recent = recent[len(recent)-recentDays:]
	}
	if table := DailyTable(recent); table != "" {
		output.WriteString(table)
		output.WriteString("\n")
	}

	return output.String()
}

func (f *TableWriterFormatter) formatTokens(stats types.TokenStats) string {
	var output strings.Builder
	pct := stats.SavedPercent()

	fmt.Fprintf(&output, "  Requests       %8s   (%s compressed, %s passthrough)\n",
		formatNumberWithCommas(stats.TotalRequests),
		formatNumberWithCommas(stats.CompressedRequests),
		formatNumberWithCommas(stats.PassthroughRequests))
	fmt.Fprintf(&output, "  Tokens in      %8s\n", FormatTokens(stats.TotalOrigTokens))
	fmt.Fprintf(&output, "  Tokens saved   %8s   %s %s\n", FormatTokens(stats.TotalSavedTokens), f.style.bar(pct/100, 15, true), FormatPercent(pct))
	fmt.Fprintf(&output, "  Money saved    %8s\n", FormatMoney(stats.TotalMoneySaved))
	output.WriteString("\n")

	var rows [][]string
	for _, m := range stats.SortedModels() {
		p := 0.0
		if m.OrigTokens > 0 {
			p = float64(m.SavedTokens) / float64(m.OrigTokens) * 100
		}
		rows = append(rows, []string{
			ShortenModelName(m.Name),
			formatNumberWithCommas(m.Count),
			FormatTokens(m.SavedTokens),
			FormatPercent(p),
			FormatMoney(m.MoneySaved),
		})
	}

	output.WriteString(f.renderTable([]string{"Model", "Reqs", "Saved", "%", "Value"}, rows, "lrrrr"))
	output.WriteString("\n")
	return output.String()
}

func (f *TableWriterFormatter) formatSizes(stats types.SizeStats) string {
	var output strings.Builder

	rows := [][]string{
		sizeRow("All outputs", stats.AllSizes),
		sizeRow("Compressed", stats.CompressedSizes),
		sizeRow("Passthrough", stats.PassthroughSizes),
	}
	output.WriteString(f.renderTable([]string{"", "Count", "Median", "Avg", "p90", "Range"}, rows, "lrrrrr"))

	if len(stats.Ratios) > 0 {
		sorted := append([]float64(nil), stats.Ratios...)
		sort.Float64s(sorted)
		avg := meanFloats(sorted)
		fmt.Fprintf(&output, "\n  Compression ratio    %s  avg %.2f  median %.2f  best %.2f  worst %.2f\n",
			f.style.bar(avg, 20, false), avg, medianFloats(sorted), sorted[0], sorted[len(sorted)-1])
	}
	output.WriteString("\n")
	return output.String()
}

func (f *TableWriterFormatter) formatTools(stats types.SizeStats) string {
	var output strings.Builder

	var rows [][]string
	for _, t := range stats.SortedTools() {
		saved := "--"
		if t.SavedBytes != 0 {
			saved = FormatBytes(t.SavedBytes)
		}
		compressed := "--"
		if t.Compressed > 0 {
			compressed = formatNumberWithCommas(t.Compressed)
		}
		rows = append(rows, []string{t.Name, formatNumberWithCommas(t.Total), compressed, saved})
	}
	output.WriteString(f.renderTable([]string{"Tool", "Outputs", "Compressed", "Saved"}, rows, "lrrr"))
	output.WriteString("\n")

	total := 0
	for _, n := range stats.StatusCounts {
		total += n
	}
	rows = nil
	for _, s := range stats.SortedStatuses() {
		pct := 0.0
		if total > 0 {
			pct = float64(s.Count) / float64(total) * 100
		}
		rows = append(rows, []string{s.Status, formatNumberWithCommas(s.Count), f.style.bar(pct/100, 12, true) + " " + FormatPercent(pct)})
	}
	output.WriteString(f.renderTable([]string{"Status", "Count", "Distribution"}, rows, "lrl"))
	output.WriteString("\n")

	return output.String()
}

func (f *TableWriterFormatter) formatThresholds(stats types.SizeStats) string {
	var output strings.Builder

	var rows [][]string
	for _, r := range stats.Thresholds {
		var markers []string
		if stats.CurrentThreshold != 0 && r.Threshold == stats.CurrentThreshold {
			markers = append(markers, "current")
		}
		if stats.SweetSpot != 0 && r.Threshold == stats.SweetSpot && stats.SweetSpot != stats.CurrentThreshold {
			markers = append(markers, "sweet spot")
		}
		note := ""
		if len(markers) > 0 {
			note = "<-- " + strings.Join(markers, ", ")
		}
		rows = append(rows, []string{
			formatNumberWithCommas(r.Threshold),
			formatNumberWithCommas(r.Calls),
			fmt.Sprintf("%.2f", r.Ratio),
			FormatBytes(r.Saved),
			formatNumberWithCommas(r.Wasted),
			fmt.Sprintf("%.0fx", r.ROI),
			note,
		})
	}
	output.WriteString(f.renderTable([]string{"Threshold", "Calls", "Ratio", "Saved", "Wasted", "ROI", ""}, rows, "rrrrrrl"))

	if line := ThresholdAdvice(stats); line != "" {
		output.WriteString("  " + line + "\n")
	}
	output.WriteString("\n")

	if len(stats.Buckets) > 0 {
		output.WriteString("  Size buckets:\n")
		for _, b := range stats.Buckets {
			wasted := ""
			if b.Wasted > 0 {
				wasted = fmt.Sprintf("  wasted: %d", b.Wasted)
			}
			fmt.Fprintf(&output, "    %8s   n=%3d   %s %.2f   saved %7s%s\n",
				b.Label, b.Count, f.style.bar(b.Ratio, 12, false), b.Ratio, FormatBytes(b.Saved), wasted)
		}
		output.WriteString("\n")
	}

	return output.String()
}

// ThresholdAdvice compares the sweet spot with the configured threshold.
// It returns "" unless both are known.
func ThresholdAdvice(stats types.SizeStats) string {
	sweet, current := stats.SweetSpot, stats.CurrentThreshold
	if sweet == 0 || current == 0 {
		return ""
	}
	switch {
	case sweet == current:
		return fmt.Sprintf("Current threshold (%sB) is the sweet spot -- 0 wasted calls, maximum savings", formatNumberWithCommas(current))
	case sweet < current:
		return fmt.Sprintf("Sweet spot is %sB (0 wasted), current is %sB -- could lower for more savings",
			formatNumberWithCommas(sweet), formatNumberWithCommas(current))
	default:
		return fmt.Sprintf("Sweet spot is %sB (0 wasted), current is %sB -- consider raising to eliminate waste",
			formatNumberWithCommas(sweet), formatNumberWithCommas(current))
	}
}

// renderTable draws rows with tablewriter. aligns holds one 'l' or 'r' per column.
func (f *TableWriterFormatter) renderTable(headers []string, rows [][]string, aligns string) string {
	if len(rows) == 0 {
		return ""
	}

	perColumn := make([]tw.Align, len(headers))
	for i := range perColumn {
		perColumn[i] = tw.AlignLeft
		if i < len(aligns) && aligns[i] == 'r' {
			perColumn[i] = tw.AlignRight
		}
	}

	var buf bytes.Buffer
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{})),
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{PerColumn: perColumn},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{PerColumn: perColumn},
			},
		}),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)

	table.Header(headers)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()

	return f.colorize(indent(buf.String(), "  "))
}

// colorize greys the borders and highlights the header row.
func (f *TableWriterFormatter) colorize(tableOutput string) string {
	if f.noColor {
		return tableOutput
	}

	gray := "\033[90m"
	cyan := "\033[36m"
	reset := "\033[0m"

	lines := strings.Split(tableOutput, "\n")
	var coloredOutput strings.Builder
	headerDone := false

	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		switch {
		case trimmed == "":
			coloredOutput.WriteString(line)
		case strings.HasPrefix(trimmed, "┌") || strings.HasPrefix(trimmed, "├") || strings.HasPrefix(trimmed, "└"):
			if strings.HasPrefix(trimmed, "├") {
				headerDone = true
			}
			coloredOutput.WriteString(gray + line + reset)
		case strings.Contains(line, "│"):
			parts := strings.Split(line, "│")
			for j, part := range parts {
				if j > 0 {
					coloredOutput.WriteString(gray + "│" + reset)
				}
				if !headerDone && strings.TrimSpace(part) != "" {
					coloredOutput.WriteString(cyan + part + reset)
				} else {
					coloredOutput.WriteString(part)
				}
			}
		default:
			coloredOutput.WriteString(line)
		}
		if i < len(lines)-1 {
			coloredOutput.WriteString("\n")
		}
	}

	return coloredOutput.String()
}

func (f *TableWriterFormatter) formatEmptyReport() string {
	return "\n  No gateway telemetry to report.\n\n"
}

var (
	dateSuffix   = regexp.MustCompile(`-\d{8}$`)
	claudeFamily = regexp.MustCompile(`^claude-([a-z]+)-(\d+)(?:-(\d+))?$`)
	claudeLegacy = regexp.MustCompile(`^claude-(\d+)(?:-(\d+))?-([a-z]+)$`)
)

// ShortenModelName turns model IDs into compact labels:
//
//	claude-opus-4-1-20250805   -> Opus-4.1
//	claude-sonnet-4-20250514   -> Sonnet-4
//	claude-3-5-sonnet-20241022 -> Sonnet-3.5
func ShortenModelName(model string) string {
	base := dateSuffix.ReplaceAllString(model, "")

	if m := claudeFamily.FindStringSubmatch(base); m != nil {
		return versionLabel(m[1], m[2], m[3])
	}
	if m := claudeLegacy.FindStringSubmatch(base); m != nil {
		return versionLabel(m[3], m[1], m[2])
	}

	knownModels := map[string]string{
		"gpt-4o":        "gpt-4o",
		"gpt-4o-mini":   "gpt-4o-mini",
		"gpt-4":         "gpt-4",
		"gpt-3.5-turbo": "gpt-3.5",
	}
	if short, ok := knownModels[model]; ok {
		return short
	}

	if runes := []rune(model); len(runes) > 12 {
		return string(runes[:12])
	}
	return model
}

func versionLabel(family, major, minor string) string {
	name := strings.ToUpper(family[:1]) + family[1:]
	if minor == "" {
		return fmt.Sprintf("%s-%s", name, major)
	}
	return fmt.Sprintf("%s-%s.%s", name, major, minor)
}

// sizeRow summarizes one size list; p90 needs at least 20 values.
func sizeRow(label string, data []int) []string {
	if len(data) == 0 {
		return []string{label, "--", "--", "--", "--", "--"}
	}
	sorted := append([]int(nil), data...)
	sort.Ints(sorted)
	n := len(sorted)

	p90 := "--"
	if n >= 20 {
		p90 = FormatBytes(sorted[int(float64(n)*0.9)])
	}

	sum := 0
	for _, v := range sorted {
		sum += v
	}

	return []string{
		label,
		formatNumberWithCommas(n),
		FormatBytes(int(medianSortedInts(sorted))),
		FormatBytes(sum / n),
		p90,
		FormatBytes(sorted[0]) + ".." + FormatBytes(sorted[n-1]),
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

func meanFloats(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func medianFloats(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func medianSortedInts(sorted []int) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}
