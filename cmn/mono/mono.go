// Package mono provides low-level monotonic time helpers for latency
// accounting.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

var epoch = time.Now()

// NanoTime returns a monotonic clock reading in nanoseconds. Only the delta
// between two readings is meaningful; never compare across processes.
func NanoTime() int64 { return int64(time.Since(epoch)) }

// Since returns the elapsed duration since a prior NanoTime() reading.
func Since(start int64) time.Duration { return time.Duration(NanoTime() - start) }
