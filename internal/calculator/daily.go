package calculator

import (
	"sort"
	"time"

	"github.com/sdpower/ctxgw-report/internal/types"
)

// timestampLayouts are tried against the first 19 characters of a timestamp.
var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// AnalyzeDaily sums original tokens of /v1/messages requests per calendar day.
// Days with a zero total are left out of every statistic; nil means no active day.
func (c *Calculator) AnalyzeDaily(events []types.RequestEvent) *types.DailyStats {
	totals := make(map[string]int)
	for _, m := range filterMessages(events) {
		if m.Timestamp == "" {
			continue
		}
		date, ok := CalendarDate(m.Timestamp)
		if !ok {
			continue
		}
		totals[date] += m.OriginalTokens
	}

	var days []types.DayTotal
	for date, tokens := range totals {
		if tokens > 0 {
			days = append(days, types.DayTotal{Date: date, Tokens: tokens})
		}
	}
	if len(days) == 0 {
		return nil
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date < days[j].Date
	})

	values := make([]int, len(days))
	sum := 0
	for i, d := range days {
		values[i] = d.Tokens
		sum += d.Tokens
	}
	sort.Ints(values)

	return &types.DailyStats{
		ActiveDays:         len(values),
		AvgTokensPerDay:    float64(sum) / float64(len(values)),
		MedianTokensPerDay: medianInts(values),
		MinTokensPerDay:    values[0],
		MaxTokensPerDay:    values[len(values)-1],
		DailyValues:        values,
		Days:               days,
	}
}

// CalendarDate returns the YYYY-MM-DD date of an ISO-8601 timestamp, read from
// its first 19 characters. The wall-clock date is used as written.
func CalendarDate(ts string) (string, bool) {
	if len(ts) > 19 {
		ts = ts[:19]
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// medianInts expects sorted, non-empty input.
func medianInts(sorted []int) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}
