package combi

// Stats counts what the engine did during its last match.
type Stats struct {
	// Captures is how many times a matcher was invoked, cached or
	// not.
	Captures int

	CacheHits   int
	CacheMisses int
	CacheStores int

	// Deferrals counts left recursive re-entries that were failed
	// on purpose to find a seed.
	Deferrals int

	// Growths counts iterations of the seed growing loop, including
	// the last one that made no progress.
	Growths int

	// Failures counts atomic matchers that did not match.
	Failures int

	Records  int
	MaxDepth int
}

// HitRatio is the share of cache lookups that were hits.
func (s Stats) HitRatio() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total)
}
