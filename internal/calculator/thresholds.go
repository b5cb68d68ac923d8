package calculator

import "github.com/sdpower/ctxgw-report/internal/types"

const (
	// MinThresholdSamples is the fewest compressed samples the sweep needs.
	MinThresholdSamples = 10

	// CompressorModel prices the auxiliary model that performs compression.
	CompressorModel = "claude-haiku-4-5-20251001"

	// PremiumPrice is the $/MTok rate of the main model whose input is saved.
	PremiumPrice = 15.0

	// bytesPerToken approximates token counts from byte sizes.
	bytesPerToken = 4
)

// CandidateThresholds are the evaluated min_threshold values in bytes, ascending.
var CandidateThresholds = []int{256, 512, 768, 1024, 1536, 2048, 3072, 4096}

// ThresholdSweep is the outcome of evaluating every candidate threshold.
type ThresholdSweep struct {
	Results         []types.ThresholdResult
	SweetSpot       int     // smallest threshold with zero waste, 0 if none
	CompressionCost float64 // cost at the current threshold, 0 if it was not evaluated
}

// OptimizeThresholds evaluates each candidate threshold independently over the
// compressed samples. Fewer than MinThresholdSamples samples yield an empty sweep.
func (c *Calculator) OptimizeThresholds(samples []types.CompressedSample, current int) ThresholdSweep {
	var sweep ThresholdSweep
	if len(samples) < MinThresholdSamples {
		return sweep
	}

	currentInput := 0
	for _, threshold := range CandidateThresholds {
		result, input, ok := c.evaluateThreshold(samples, threshold)
		if !ok {
			continue
		}
		sweep.Results = append(sweep.Results, result)
		if threshold == current {
			currentInput = input
		}
	}

	for _, r := range sweep.Results {
		if r.Wasted == 0 {
			sweep.SweetSpot = r.Threshold
			break
		}
	}

	if currentInput > 0 {
		sweep.CompressionCost = c.compressionCost(currentInput)
	}

	return sweep
}

// evaluateThreshold computes the result for samples with orig >= threshold and
// returns their total input bytes. ok is false when no sample is eligible.
func (c *Calculator) evaluateThreshold(samples []types.CompressedSample, threshold int) (result types.ThresholdResult, input int, ok bool) {
	var (
		calls    int
		wasted   int
		saved    int
		ratioSum float64
	)

	for _, s := range samples {
		if s.Orig < threshold {
			continue
		}
		calls++
		input += s.Orig
		ratioSum += s.Ratio
		if s.Wasted() {
			wasted++
		} else {
			saved += s.Orig - s.Comp
		}
	}

	if calls == 0 {
		return types.ThresholdResult{}, 0, false
	}

	cost := c.compressionCost(input)
	benefit := float64(saved) / bytesPerToken / 1e6 * PremiumPrice
	roi := 0.0
	if cost > 0 {
		roi = benefit / cost
	}

	return types.ThresholdResult{
		Threshold: threshold,
		Calls:     calls,
		Ratio:     ratioSum / float64(calls),
		Saved:     saved,
		Wasted:    wasted,
		ROI:       roi,
	}, input, true
}

// compressionCost prices compressing inputBytes with the compressor model.
func (c *Calculator) compressionCost(inputBytes int) float64 {
	return float64(inputBytes) / bytesPerToken / 1e6 * c.prices.Price(CompressorModel)
}
