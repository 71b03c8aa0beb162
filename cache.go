package combi

// dep names the frame a result was computed under.  A frame is
// identified by its depth and the epoch it got when pushed, which no
// other frame of the same match shares.
type dep struct {
	m     *Matcher
	depth int
	epoch int
}

type cacheEntry struct {
	m   *Matcher
	end int
	ok  bool

	// records are stored relative to the depth of the frame that
	// produced them, so they can be replayed at any depth.
	records []Record

	// deps are the frames below the producing one the result
	// depended on.  The entry is only valid while all of them are
	// on the stack.
	deps []dep
}

// cache is the packrat table: one slot per input offset, each holding
// the entries computed at that offset, newest last.
type cache struct {
	slots [][]*cacheEntry
}

func newCache(size int) *cache {
	return &cache{slots: make([][]*cacheEntry, size)}
}

// lookup returns the newest entry for `m` at `pos` whose dependencies
// are all satisfied by `live`.
func (c *cache) lookup(m *Matcher, pos int, live func(dep) bool) *cacheEntry {
	slot := c.slots[pos]
	for i := len(slot) - 1; i >= 0; i-- {
		entry := slot[i]
		if entry.m != m {
			continue
		}
		if entry.usable(live) {
			return entry
		}
	}
	return nil
}

func (c *cache) store(pos int, entry *cacheEntry) {
	c.slots[pos] = append(c.slots[pos], entry)
}

func (e *cacheEntry) usable(live func(dep) bool) bool {
	for _, d := range e.deps {
		if !live(d) {
			return false
		}
	}
	return true
}
