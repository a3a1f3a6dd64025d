package cache

// A VictimFinder decides which line should be evicted on a miss. FindVictim
// is only invoked after a confirmed miss, so it never needs to re-check for
// a resident tag.
type VictimFinder interface {
	// FindVictim returns the index of the line to fill.
	FindVictim(lines []Block, fields Fields) int

	// Reset clears all replacement bookkeeping.
	Reset()

	// Counters exposes the replacement counters for display. It returns nil
	// for policies that keep no counters.
	Counters() []int
}

// DirectVictimFinder selects the single line an address maps to. There is
// no choice in direct-mapped organization: the mapped line is replaced
// whether it is valid or not.
type DirectVictimFinder struct{}

// NewDirectVictimFinder returns a newly constructed direct-mapped evictor.
func NewDirectVictimFinder() *DirectVictimFinder {
	return &DirectVictimFinder{}
}

// FindVictim returns the mapped line index.
func (f *DirectVictimFinder) FindVictim(_ []Block, fields Fields) int {
	return fields.Index
}

// Reset is a no-op; the direct-mapped policy keeps no state.
func (f *DirectVictimFinder) Reset() {}

// Counters returns nil; the direct-mapped policy keeps no counters.
func (f *DirectVictimFinder) Counters() []int { return nil }

// RoundRobinVictimFinder evicts lines of a set in cyclic order. Each set
// keeps an independent counter that only advances when a fully-valid set
// forces an eviction; filling an invalid line does not move the counter.
type RoundRobinVictimFinder struct {
	assoc    int
	counters []int
}

// NewRoundRobinVictimFinder returns a newly constructed round-robin evictor
// for a cache with numSets sets of assoc lines each.
func NewRoundRobinVictimFinder(numSets, assoc int) *RoundRobinVictimFinder {
	return &RoundRobinVictimFinder{
		assoc:    assoc,
		counters: make([]int, numSets),
	}
}

// FindVictim returns the first invalid line of the target set or, if the
// set is full, the line the set's round-robin counter points at.
func (f *RoundRobinVictimFinder) FindVictim(lines []Block, fields Fields) int {
	set := fields.Index
	base := set * f.assoc

	for way := 0; way < f.assoc; way++ {
		if !lines[base+way].IsValid {
			return base + way
		}
	}

	victim := base + f.counters[set]
	f.counters[set] = (f.counters[set] + 1) % f.assoc

	return victim
}

// Reset zeroes every per-set counter.
func (f *RoundRobinVictimFinder) Reset() {
	for i := range f.counters {
		f.counters[i] = 0
	}
}

// Counters returns the per-set round-robin counters.
func (f *RoundRobinVictimFinder) Counters() []int {
	return f.counters
}

// GlobalRoundRobinVictimFinder evicts lines of the whole cache in cyclic
// order. It is the fully-associative policy: one counter cycles through all
// lines, advancing only when a fully-valid cache forces an eviction.
type GlobalRoundRobinVictimFinder struct {
	numLines int
	counter  int
}

// NewGlobalRoundRobinVictimFinder returns a newly constructed round-robin
// evictor that treats the whole cache as one set.
func NewGlobalRoundRobinVictimFinder(numLines int) *GlobalRoundRobinVictimFinder {
	return &GlobalRoundRobinVictimFinder{numLines: numLines}
}

// FindVictim returns the first invalid line or, if every line is valid, the
// line the global counter points at.
func (f *GlobalRoundRobinVictimFinder) FindVictim(
	lines []Block,
	_ Fields,
) int {
	for i := range lines {
		if !lines[i].IsValid {
			return i
		}
	}

	victim := f.counter
	f.counter = (f.counter + 1) % f.numLines

	return victim
}

// Reset zeroes the global counter.
func (f *GlobalRoundRobinVictimFinder) Reset() {
	f.counter = 0
}

// Counters returns the global counter as a one-element slice.
func (f *GlobalRoundRobinVictimFinder) Counters() []int {
	return []int{f.counter}
}
