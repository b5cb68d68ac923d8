package output

import (
	"strings"
	"testing"

	"github.com/sdpower/ctxgw-report/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestFormatNumbers(t *testing.T) {
	assert.Equal(t, "0", formatNumberWithCommas(0))
	assert.Equal(t, "999", formatNumberWithCommas(999))
	assert.Equal(t, "1,000", formatNumberWithCommas(1000))
	assert.Equal(t, "1,234,567", formatNumberWithCommas(1234567))
	assert.Equal(t, "-12,345", formatNumberWithCommas(-12345))

	assert.Equal(t, "999", FormatTokens(999))
	assert.Equal(t, "1.5K", FormatTokens(1500))
	assert.Equal(t, "2.3M", FormatTokens(2_300_000))

	assert.Equal(t, "512B", FormatBytes(512))
	assert.Equal(t, "1.0KB", FormatBytes(1024))
	assert.Equal(t, "1.5MB", FormatBytes(1_572_864))

	assert.Equal(t, "$0.00", FormatMoney(0))
	assert.Equal(t, "$1,234.50", FormatMoney(1234.5))
	assert.Equal(t, "$0.01", FormatMoney(0.006))
	assert.Equal(t, "-$3.25", FormatMoney(-3.25))

	assert.Equal(t, "42.0%", FormatPercent(42))
	assert.Equal(t, "  ab", padLeft("ab", 4))
	assert.Equal(t, "abc", padLeft("abc", 2))
}

func TestRenderDailyChart(t *testing.T) {
	assert.Empty(t, RenderDailyChart(nil, 40, 5, true))
	assert.Empty(t, RenderDailyChart([]types.DayTotal{{Date: "2025-01-01", Tokens: 5}}, 40, 5, true))

	chart := RenderDailyChart([]types.DayTotal{
		{Date: "2025-01-01", Tokens: 100},
		{Date: "2025-01-03", Tokens: 400},
		{Date: "2025-01-04", Tokens: 200},
	}, 40, 5, true)
	assert.Contains(t, chart, "2025-01-01 .. 2025-01-04")
	assert.NotContains(t, chart, "\033[")
}

func TestRenderSparkline(t *testing.T) {
	assert.Empty(t, RenderSparkline(nil))
	assert.Equal(t, "▁█", RenderSparkline([]int{0, 10}))
	assert.Equal(t, "▁▁", RenderSparkline([]int{0, 0}))
}

func TestDailyTable(t *testing.T) {
	out := DailyTable([]types.DayTotal{
		{Date: "2025-01-01", Tokens: 1000},
		{Date: "2025-01-02", Tokens: 500},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], strings.Repeat("▇", 30))
	assert.Contains(t, lines[1], "500")
	assert.Empty(t, DailyTable(nil))
}
