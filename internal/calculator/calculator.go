package calculator

import (
	"github.com/sdpower/ctxgw-report/internal/types"
)

// Calculator turns parsed gateway logs into aggregate statistics. It holds no
// state besides the price lookup; every method builds a fresh result.
type Calculator struct {
	prices PriceLookup
}

// PriceLookup returns the input price of a model in $/MTok.
type PriceLookup interface {
	Price(model string) float64
}

func New(prices PriceLookup) *Calculator {
	return &Calculator{
		prices: prices,
	}
}

// Analyze runs every aggregator over one snapshot of both logs.
func (c *Calculator) Analyze(requests []types.RequestEvent, compressions []types.CompressionEvent) types.Report {
	return types.Report{
		Tokens: c.AnalyzeTokens(requests),
		Sizes:  c.AnalyzeSizes(compressions),
		Daily:  c.AnalyzeDaily(requests),
	}
}

// AnalyzeTokens summarizes token and money savings of /v1/messages requests.
// It returns nil when there are no such requests.
func (c *Calculator) AnalyzeTokens(events []types.RequestEvent) *types.TokenStats {
	msgs := filterMessages(events)
	if len(msgs) == 0 {
		return nil
	}

	stats := types.TokenStats{
		TotalRequests: len(msgs),
	}

	for _, m := range msgs {
		stats.TotalOrigTokens += m.OriginalTokens
		if !m.CompressionUsed {
			stats.PassthroughRequests++
			continue
		}
		stats.CompressedRequests++
		stats.TotalSavedTokens += m.TokensSaved
		stats.TotalShadows += m.ShadowRefsCreated
		stats.TotalExpands += m.ExpandCallsFound
		// Priced per record so each request pays its own model's rate.
		stats.TotalMoneySaved += float64(m.TokensSaved) / 1e6 * c.prices.Price(m.Model)
	}

	stats.Models = c.modelBreakdown(msgs)
	return &stats
}

// modelBreakdown groups requests by model, then prices each model's saved
// tokens once.
func (c *Calculator) modelBreakdown(msgs []types.RequestEvent) map[string]types.ModelStats {
	models := make(map[string]types.ModelStats)
	for _, m := range msgs {
		name := m.ModelKey()
		s := models[name]
		s.Name = name
		s.Count++
		s.OrigTokens += m.OriginalTokens
		s.SavedTokens += m.TokensSaved
		models[name] = s
	}

	for name, s := range models {
		s.MoneySaved = float64(s.SavedTokens) / 1e6 * c.prices.Price(name)
		models[name] = s
	}
	return models
}

// AnalyzeSizes summarizes byte-level compression outcomes and runs the
// threshold sweep. It returns nil when no record has a non-zero original size.
func (c *Calculator) AnalyzeSizes(events []types.CompressionEvent) *types.SizeStats {
	if len(events) == 0 {
		return nil
	}

	stats := types.SizeStats{
		Tools:        make(map[string]types.ToolStats),
		StatusCounts: make(map[string]int),
	}

	for _, e := range events {
		orig := e.OriginalBytes
		if orig <= 0 {
			continue
		}

		stats.AllSizes = append(stats.AllSizes, orig)
		stats.StatusCounts[e.Status]++

		name := e.ToolKey()
		tool := stats.Tools[name]
		tool.Name = name
		tool.Total++
		tool.OrigBytes += orig

		if e.IsCompressed() {
			comp := e.Compressed()
			tool.Compressed++
			tool.SavedBytes += orig - comp

			sample := types.CompressedSample{Orig: orig, Comp: comp, Ratio: float64(comp) / float64(orig)}
			stats.CompressedSizes = append(stats.CompressedSizes, orig)
			stats.Ratios = append(stats.Ratios, sample.Ratio)
			stats.Samples = append(stats.Samples, sample)
		} else {
			stats.PassthroughSizes = append(stats.PassthroughSizes, orig)
		}

		stats.Tools[name] = tool
	}

	if len(stats.AllSizes) == 0 {
		return nil
	}

	stats.CurrentThreshold = CurrentThreshold(events)

	sweep := c.OptimizeThresholds(stats.Samples, stats.CurrentThreshold)
	stats.Thresholds = sweep.Results
	stats.SweetSpot = sweep.SweetSpot
	stats.CompressionCost = sweep.CompressionCost

	stats.Buckets = BucketSamples(stats.Samples)

	return &stats
}

// CurrentThreshold returns the most recent non-zero min_threshold in the log, or 0.
func CurrentThreshold(events []types.CompressionEvent) int {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].MinThreshold > 0 {
			return events[i].MinThreshold
		}
	}
	return 0
}

func filterMessages(events []types.RequestEvent) []types.RequestEvent {
	var msgs []types.RequestEvent
	for _, e := range events {
		if e.Path == types.MessagesPath {
			msgs = append(msgs, e)
		}
	}
	return msgs
}
