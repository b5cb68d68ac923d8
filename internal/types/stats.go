package types

import "sort"

// ModelStats holds per-model request totals
type ModelStats struct {
	Name        string  `json:"name"`
	Count       int     `json:"count"`
	OrigTokens  int     `json:"orig_tokens"`
	SavedTokens int     `json:"saved_tokens"`
	MoneySaved  float64 `json:"money_saved"`
}

// TokenStats summarizes request-level token and cost savings.
type TokenStats struct {
	TotalRequests       int                   `json:"total_requests"`
	CompressedRequests  int                   `json:"compressed_requests"`
	PassthroughRequests int                   `json:"passthrough_requests"`
	TotalOrigTokens     int                   `json:"total_orig_tokens"`
	TotalSavedTokens    int                   `json:"total_saved_tokens"`
	TotalMoneySaved     float64               `json:"total_money_saved"`
	TotalShadows        int                   `json:"total_shadows"`
	TotalExpands        int                   `json:"total_expands"`
	Models              map[string]ModelStats `json:"models"`
}

// SortedModels returns the per-model breakdown ordered by money saved, highest first.
func (s TokenStats) SortedModels() []ModelStats {
	models := make([]ModelStats, 0, len(s.Models))
	for _, m := range s.Models {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool {
		if models[i].MoneySaved != models[j].MoneySaved {
			return models[i].MoneySaved > models[j].MoneySaved
		}
		return models[i].Name < models[j].Name
	})
	return models
}

// SavedPercent returns saved tokens as a percentage of original tokens, clamped to [0, 100].
func (s TokenStats) SavedPercent() float64 {
	return clampPercent(s.TotalSavedTokens, s.TotalOrigTokens)
}

// ToolStats holds per-tool compression totals
type ToolStats struct {
	Name       string `json:"name"`
	Total      int    `json:"total"`
	Compressed int    `json:"compressed"`
	OrigBytes  int    `json:"orig_bytes"`
	SavedBytes int    `json:"saved_bytes"`
}

// CompressedSample is a single compressed tool output kept as one tuple so that
// sizes and ratios never have to be re-paired by position.
type CompressedSample struct {
	Orig  int     `json:"orig"`
	Comp  int     `json:"comp"`
	Ratio float64 `json:"ratio"`
}

// Wasted reports whether the compression saved less than 10% of the size.
func (c CompressedSample) Wasted() bool {
	return c.Ratio >= WastedRatio
}

// WastedRatio is the ratio at or above which a compression attempt counts as wasted.
const WastedRatio = 0.9

// ThresholdResult is the outcome of one candidate compression threshold.
type ThresholdResult struct {
	Threshold int     `json:"threshold"`
	Calls     int     `json:"calls"`
	Ratio     float64 `json:"ratio"`
	Saved     int     `json:"saved"`
	Wasted    int     `json:"wasted"`
	ROI       float64 `json:"roi"`
}

// SizeBucket summarizes compressed samples whose original size falls in [Lo, Hi).
type SizeBucket struct {
	Lo     int     `json:"lo"`
	Hi     int     `json:"hi"`
	Label  string  `json:"label"`
	Count  int     `json:"count"`
	Ratio  float64 `json:"ratio"`
	Wasted int     `json:"wasted"`
	Saved  int     `json:"saved"`
}

// SizeStats summarizes byte-level compression outcomes.
type SizeStats struct {
	AllSizes         []int                `json:"all_sizes"`
	CompressedSizes  []int                `json:"compressed_sizes"`
	PassthroughSizes []int                `json:"passthrough_sizes"`
	Ratios           []float64            `json:"ratios"`
	Samples          []CompressedSample   `json:"samples"`
	Tools            map[string]ToolStats `json:"tools"`
	StatusCounts     map[string]int       `json:"status_counts"`
	CurrentThreshold int                  `json:"current_threshold"`
	Thresholds       []ThresholdResult    `json:"thresholds"`
	SweetSpot        int                  `json:"sweet_spot"` // 0 when no threshold has zero waste
	CompressionCost  float64              `json:"compression_cost"`
	Buckets          []SizeBucket         `json:"buckets"`
}

// SortedTools returns the per-tool breakdown ordered by output count, highest first.
func (s SizeStats) SortedTools() []ToolStats {
	tools := make([]ToolStats, 0, len(s.Tools))
	for _, t := range s.Tools {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool {
		if tools[i].Total != tools[j].Total {
			return tools[i].Total > tools[j].Total
		}
		return tools[i].Name < tools[j].Name
	})
	return tools
}

// StatusCount is one entry of the status breakdown.
type StatusCount struct {
	Status string
	Count  int
}

// SortedStatuses returns the status breakdown ordered by count, highest first.
func (s SizeStats) SortedStatuses() []StatusCount {
	statuses := make([]StatusCount, 0, len(s.StatusCounts))
	for status, n := range s.StatusCounts {
		statuses = append(statuses, StatusCount{Status: status, Count: n})
	}
	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i].Count != statuses[j].Count {
			return statuses[i].Count > statuses[j].Count
		}
		return statuses[i].Status < statuses[j].Status
	})
	return statuses
}

// DayTotal is the token volume of one calendar day.
type DayTotal struct {
	Date   string `json:"date"` // YYYY-MM-DD
	Tokens int    `json:"tokens"`
}

// DailyStats summarizes token volume over active days only.
type DailyStats struct {
	ActiveDays         int        `json:"active_days"`
	AvgTokensPerDay    float64    `json:"avg_tokens_per_day"`
	MedianTokensPerDay float64    `json:"median_tokens_per_day"`
	MinTokensPerDay    int        `json:"min_tokens_per_day"`
	MaxTokensPerDay    int        `json:"max_tokens_per_day"`
	DailyValues        []int      `json:"daily_values"` // ascending by value
	Days               []DayTotal `json:"days"`         // ascending by date
}

// Report bundles the aggregates of one run. Nil members had nothing to report.
type Report struct {
	Tokens *TokenStats `json:"tokens,omitempty"`
	Sizes  *SizeStats  `json:"sizes,omitempty"`
	Daily  *DailyStats `json:"daily,omitempty"`
}

func clampPercent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	pct := float64(part) / float64(whole) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
