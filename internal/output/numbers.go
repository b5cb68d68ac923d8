package output

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// formatNumberWithCommas formats a number with thousand separators
func formatNumberWithCommas(n int) string {
	if n < 0 {
		return "-" + formatNumberWithCommas(-n)
	}
	if n < 1000 {
		return strconv.Itoa(n)
	}
	return formatNumberWithCommas(n/1000) + "," + fmt.Sprintf("%03d", n%1000)
}

// FormatTokens abbreviates token counts: 1.2M, 3.4K, 999.
func FormatTokens(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return strconv.Itoa(n)
}

// FormatBytes abbreviates byte sizes with binary units: 1.5MB, 2.0KB, 512B.
func FormatBytes(n int) string {
	switch {
	case n >= 1_048_576:
		return fmt.Sprintf("%.1fMB", float64(n)/1_048_576)
	case n >= 1024:
		return fmt.Sprintf("%.1fKB", float64(n)/1024)
	}
	return fmt.Sprintf("%dB", n)
}

// FormatMoney renders dollars with thousand separators and cents: $1,234.50.
func FormatMoney(d float64) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	cents := int64(math.Round(d * 100))
	return fmt.Sprintf("%s$%s.%02d", sign, formatNumberWithCommas(int(cents/100)), cents%100)
}

// FormatPercent renders a percentage with one decimal.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// padLeft right-aligns s in a field of width terminal cells.
func padLeft(s string, width int) string {
	n := runewidth.StringWidth(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", width-n) + s
}
