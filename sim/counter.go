package sim

// Counter is a monotone per-key count, incremented as events arrive so that
// "count as of now" never needs a full log scan. Counters are rebuildable
// caches over the raw records and are never serialized.
type Counter[K comparable] struct {
	counts map[K]int
}

// NewCounter returns an empty counter.
func NewCounter[K comparable]() *Counter[K] {
	return &Counter[K]{counts: make(map[K]int)}
}

// Inc increments the count for a key.
func (c *Counter[K]) Inc(key K) {
	c.counts[key]++
}

// Get returns the count for a key, zero if never incremented.
func (c *Counter[K]) Get(key K) int {
	return c.counts[key]
}

// Total sums all per-key counts.
func (c *Counter[K]) Total() int {
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}
