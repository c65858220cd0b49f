package dload

import (
	"sync"

	cuckoo "github.com/seiflotfy/cuckoofilter"
)

const (
	// overflowKey is the bucket every error beyond the cap is folded into.
	overflowKey = "<other>"

	defaultCapacity = 128
	filterCapacity  = 4096
)

// CappedCounter is the bounded-cardinality status counter from §9: it caps
// the number of distinct keys tracked (top-K with an overflow bucket) so an
// adversarial set of unique error strings can't inflate memory.
//
// A cuckoofilter fronts the capped map: Lookup is a cheap ~1-byte membership
// probe that answers "definitely new" with certainty, so a key the filter
// has never seen skips the map's tracked-check entirely and goes straight
// to the insert-or-overflow decision; only a key the filter says it may
// have seen before pays for the map lookup.
type CappedCounter struct {
	mu       sync.Mutex
	cap      int
	counts   map[string]int64
	overflow int64
	seen     *cuckoo.Filter
}

func NewCappedCounter(capacity int) *CappedCounter {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &CappedCounter{
		cap:    capacity,
		counts: make(map[string]int64, capacity),
		seen:   cuckoo.NewFilter(filterCapacity),
	}
}

// Increment accepts either a human error message or a status keyword (§4.6:
// "The bounded status counter accepts either the human error message or the
// status keyword").
func (c *CappedCounter) Increment(key string) {
	b := []byte(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.seen.Lookup(b) {
		if _, tracked := c.counts[key]; tracked {
			c.counts[key]++
			return
		}
	}
	if len(c.counts) < c.cap {
		c.counts[key] = 1
		c.seen.InsertUnique(b)
		return
	}
	c.overflow++
}

// Snapshot returns a point-in-time copy, including the overflow bucket
// under overflowKey if anything spilled into it.
func (c *CappedCounter) Snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]int64, len(c.counts)+1)
	for k, v := range c.counts {
		out[k] = v
	}
	if c.overflow > 0 {
		out[overflowKey] = c.overflow
	}
	return out
}
