package calculator

import (
	"math/rand"
	"testing"

	"github.com/sdpower/ctxgw-report/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compressedEvent(tool string, orig, comp, threshold int) types.CompressionEvent {
	return types.CompressionEvent{
		ToolName:        tool,
		Status:          types.StatusCompressed,
		OriginalBytes:   orig,
		CompressedBytes: intPtr(comp),
		MinThreshold:    threshold,
	}
}

func repeatEvent(e types.CompressionEvent, n int) []types.CompressionEvent {
	out := make([]types.CompressionEvent, n)
	for i := range out {
		out[i] = e
	}
	return out
}

// syntheticSamples has 2 wasted small outputs and 10 good ones; threshold 1024 is configured.
func syntheticSamples() []types.CompressionEvent {
	var events []types.CompressionEvent
	events = append(events, repeatEvent(compressedEvent("bash", 300, 290, 1024), 2)...)
	events = append(events, repeatEvent(compressedEvent("read_file", 600, 300, 1024), 3)...)
	events = append(events, repeatEvent(compressedEvent("read_file", 1100, 330, 1024), 3)...)
	events = append(events, repeatEvent(compressedEvent("grep", 5000, 1000, 1024), 4)...)
	events = append(events, types.CompressionEvent{ToolName: "glob", Status: "passthrough_small", OriginalBytes: 80})
	return events
}

func TestOptimizeThresholdsSweetSpot(t *testing.T) {
	stats := newCalculator().AnalyzeSizes(syntheticSamples())
	require.NotNil(t, stats)
	require.Len(t, stats.Thresholds, len(CandidateThresholds))

	calls := make([]int, len(stats.Thresholds))
	for i, r := range stats.Thresholds {
		assert.Equal(t, CandidateThresholds[i], r.Threshold)
		calls[i] = r.Calls
	}
	assert.Equal(t, []int{12, 10, 7, 7, 4, 4, 4, 4}, calls)

	first := stats.Thresholds[0]
	assert.Equal(t, 2, first.Wasted)
	assert.Equal(t, 3*300+3*770+4*4000, first.Saved)
	wantRatio := (2*(290.0/300.0) + 3*0.5 + 3*0.3 + 4*0.2) / 12
	assert.InDelta(t, wantRatio, first.Ratio, 1e-12)
	assert.InDelta(t, 19210.0*15/25700.0, first.ROI, 1e-9)

	assert.Equal(t, 512, stats.SweetSpot)
	assert.Equal(t, 1024, stats.CurrentThreshold)
	assert.InDelta(t, 23300.0/4/1e6*1.0, stats.CompressionCost, 1e-15)
}

func TestOptimizeThresholdsAllWasted(t *testing.T) {
	var events []types.CompressionEvent
	events = append(events, repeatEvent(compressedEvent("bash", 100, 50, 0), 6)...)
	events = append(events, repeatEvent(compressedEvent("bash", 1000, 990, 0), 6)...)

	stats := newCalculator().AnalyzeSizes(events)
	require.NotNil(t, stats)
	require.NotEmpty(t, stats.Thresholds)

	first := stats.Thresholds[0]
	assert.Equal(t, 256, first.Threshold)
	assert.Equal(t, 6, first.Calls)
	assert.Equal(t, 6, first.Wasted)
	assert.Zero(t, first.Saved)
	assert.Zero(t, first.ROI)

	// 1000-byte samples are below every threshold from 1024 up.
	assert.Len(t, stats.Thresholds, 3)
	assert.Zero(t, stats.SweetSpot, "no threshold reaches zero waste")
	assert.Zero(t, stats.CompressionCost, "no threshold configured")
}

func TestOptimizeThresholdsTooFewSamples(t *testing.T) {
	events := repeatEvent(compressedEvent("bash", 5000, 100, 256), MinThresholdSamples-1)
	events = append(events, repeatEvent(types.CompressionEvent{Status: "passthrough_large", OriginalBytes: 90000}, 20)...)

	stats := newCalculator().AnalyzeSizes(events)
	require.NotNil(t, stats)
	assert.Empty(t, stats.Thresholds)
	assert.Zero(t, stats.SweetSpot)
	assert.Zero(t, stats.CompressionCost)
}

func TestOptimizeThresholdsCurrentNotEvaluated(t *testing.T) {
	samples := make([]types.CompressedSample, 10)
	for i := range samples {
		samples[i] = types.CompressedSample{Orig: 300, Comp: 100, Ratio: 100.0 / 300.0}
	}

	sweep := newCalculator().OptimizeThresholds(samples, 2048)
	require.Len(t, sweep.Results, 1)
	assert.Equal(t, 256, sweep.SweetSpot)
	assert.Zero(t, sweep.CompressionCost, "2048 had no eligible samples")

	sweep = newCalculator().OptimizeThresholds(samples, 1000)
	assert.Zero(t, sweep.CompressionCost, "1000 is not a candidate")
}

func TestOptimizeThresholdsProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	calc := newCalculator()

	for round := 0; round < 50; round++ {
		samples := make([]types.CompressedSample, 10+rng.Intn(200))
		for i := range samples {
			orig := 1 + rng.Intn(6000)
			comp := rng.Intn(orig + orig/5)
			samples[i] = types.CompressedSample{Orig: orig, Comp: comp, Ratio: float64(comp) / float64(orig)}
		}

		sweep := calc.OptimizeThresholds(samples, 0)

		for i := 1; i < len(sweep.Results); i++ {
			assert.Less(t, sweep.Results[i-1].Threshold, sweep.Results[i].Threshold)
			assert.GreaterOrEqual(t, sweep.Results[i-1].Calls, sweep.Results[i].Calls)
		}

		if sweep.SweetSpot == 0 {
			for _, r := range sweep.Results {
				assert.NotZero(t, r.Wasted)
			}
			continue
		}
		for _, r := range sweep.Results {
			if r.Threshold < sweep.SweetSpot {
				assert.NotZero(t, r.Wasted, "a smaller zero-waste threshold exists")
			}
			if r.Threshold == sweep.SweetSpot {
				assert.Zero(t, r.Wasted)
			}
		}
	}
}

func TestBucketSamples(t *testing.T) {
	samples := []types.CompressedSample{
		{Orig: 100, Comp: 95, Ratio: 0.95},
		{Orig: 400, Comp: 200, Ratio: 0.5},
		{Orig: 1500, Comp: 300, Ratio: 0.2},
		{Orig: 70000, Comp: 700, Ratio: 0.01},
	}

	buckets := BucketSamples(samples)
	require.Len(t, buckets, 2)

	assert.Equal(t, "0B-512B", buckets[0].Label)
	assert.Equal(t, 2, buckets[0].Count)
	assert.Equal(t, 1, buckets[0].Wasted)
	assert.Equal(t, 205, buckets[0].Saved)
	assert.InDelta(t, 0.725, buckets[0].Ratio, 1e-12)

	assert.Equal(t, "1KB-2KB", buckets[1].Label)
	assert.Equal(t, 1, buckets[1].Count)
	assert.Equal(t, 1200, buckets[1].Saved)

	assert.Empty(t, BucketSamples(nil))
}
