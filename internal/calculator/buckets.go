package calculator

import "github.com/sdpower/ctxgw-report/internal/types"

type bucketBounds struct {
	lo, hi int
	label  string
}

var sizeBuckets = []bucketBounds{
	{0, 512, "0B-512B"},
	{512, 1024, "512B-1KB"},
	{1024, 2048, "1KB-2KB"},
	{2048, 4096, "2KB-4KB"},
	{4096, 65536, "4KB-64KB"},
}

// BucketSamples groups compressed samples by original size. Empty buckets are
// omitted and samples of 64KB or more fall in no bucket.
func BucketSamples(samples []types.CompressedSample) []types.SizeBucket {
	var buckets []types.SizeBucket
	for _, b := range sizeBuckets {
		bucket := types.SizeBucket{Lo: b.lo, Hi: b.hi, Label: b.label}
		ratioSum := 0.0
		for _, s := range samples {
			if s.Orig < b.lo || s.Orig >= b.hi {
				continue
			}
			bucket.Count++
			ratioSum += s.Ratio
			bucket.Saved += s.Orig - s.Comp
			if s.Wasted() {
				bucket.Wasted++
			}
		}
		if bucket.Count == 0 {
			continue
		}
		bucket.Ratio = ratioSum / float64(bucket.Count)
		buckets = append(buckets, bucket)
	}
	return buckets
}
