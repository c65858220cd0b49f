package dload

import (
	"fmt"
	"math"
)

// SamplesPerShardOOM computes p = ceil(log10(samplesPerShard)), the number
// of digits C3 reserves for the row index within a shard's key.
func SamplesPerShardOOM(samplesPerShard int) int {
	if samplesPerShard <= 1 {
		return 1
	}
	return int(math.Ceil(math.Log10(float64(samplesPerShard))))
}

// FormatKey is C3: the deterministic, zero-padded, globally unique sample
// key. It is a total function over nonnegative inputs — no error path.
//
//	true_key = shard_id * 10^p + row_index
//	width    = p + q
func FormatKey(rowIndex, shardID, p, q int) string {
	trueKey := int64(shardID)*int64(math.Pow10(p)) + int64(rowIndex)
	width := p + q
	return fmt.Sprintf("%0*d", width, trueKey)
}
