// Package cache implements the address-translation and line-replacement
// model of three cache organizations: direct-mapped, N-way set-associative,
// and fully-associative. The model is pure bookkeeping: given a memory
// operation and an address it decides hit or miss, selects a victim line on
// a miss, and reports the result. It knows nothing about rendering, timing,
// or memory contents.
package cache

import (
	"fmt"
	"strconv"
)

// Op is a memory operation.
type Op int

// The two memory operations the model distinguishes.
const (
	OpLoad Op = iota
	OpStore
)

func (o Op) String() string {
	switch o {
	case OpLoad:
		return "LOAD"
	case OpStore:
		return "STORE"
	}

	return fmt.Sprintf("Op(%d)", int(o))
}

// Outcome is the result of one access.
type Outcome int

// An access either hits a resident line or misses and fills a victim line.
const (
	OutcomeHit Outcome = iota
	OutcomeMiss
)

func (o Outcome) String() string {
	if o == OutcomeHit {
		return "HIT"
	}

	return "MISS"
}

// MarshalJSON encodes the outcome as "HIT" or "MISS".
func (o Outcome) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(o.String())), nil
}

// UnmarshalJSON decodes an outcome name.
func (o *Outcome) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return err
	}

	switch s {
	case "HIT":
		*o = OutcomeHit
	case "MISS":
		*o = OutcomeMiss
	default:
		return fmt.Errorf("unknown outcome %q", s)
	}

	return nil
}

// AccessResult reports what one access did to the cache. It is the entire
// surface the model exposes to its presentation layer.
type AccessResult struct {
	Outcome   Outcome `json:"outcome"`
	LineIndex int     `json:"line_index"`

	// Evicted is true if the filled line held a valid block before the
	// miss. EvictedTag is only meaningful when Evicted is true.
	Evicted    bool   `json:"evicted"`
	EvictedTag uint64 `json:"evicted_tag"`

	Fields Fields `json:"fields"`
	Step   uint64 `json:"step"`
}

// Stats accumulates access counts since the last reset.
type Stats struct {
	Accesses  uint64 `json:"accesses"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// Snapshot is a read-only copy of the cache state for display. Mutating a
// snapshot never affects the model.
type Snapshot struct {
	Mode     Mode     `json:"mode"`
	Geometry Geometry `json:"geometry"`
	Lines    []Block  `json:"lines"`
	Counters []int    `json:"counters"`
	Stats    Stats    `json:"stats"`
	Step     uint64   `json:"step"`
}

// A Cache owns the line array and the replacement bookkeeping of one cache
// organization. It resolves exactly one access at a time; it is not safe for
// concurrent use.
type Cache struct {
	mode   Mode
	geom   Geometry
	lines  []Block
	finder VictimFinder
	step   uint64
	stats  Stats
}

// New returns a cache configured with the given mode and geometry.
func New(mode Mode, g Geometry) (*Cache, error) {
	c := &Cache{}

	if err := c.Configure(mode, g); err != nil {
		return nil, err
	}

	return c, nil
}

// Configure (re)initializes the cache under a new mode and geometry. All
// lines are invalidated and all replacement counters cleared: a tag stored
// under one mode is never meaningful under another, so mode and contents
// must change together. In direct-mapped mode the associativity is forced
// to 1 and in fully-associative mode to the line count; the caller-supplied
// value only matters in set-associative mode.
func (c *Cache) Configure(mode Mode, g Geometry) error {
	switch mode {
	case ModeDirect:
		g.Assoc = 1
	case ModeSetAssociative:
		// keep the caller's associativity
	case ModeFullyAssociative:
		g.Assoc = g.NumLines
	default:
		return fmt.Errorf("unknown cache mode %d", int(mode))
	}

	if err := g.Validate(); err != nil {
		return err
	}

	c.mode = mode
	c.geom = g
	c.lines = make([]Block, g.NumLines)

	switch mode {
	case ModeDirect:
		c.finder = NewDirectVictimFinder()
	case ModeSetAssociative:
		c.finder = NewRoundRobinVictimFinder(g.NumSets(), g.Assoc)
	case ModeFullyAssociative:
		c.finder = NewGlobalRoundRobinVictimFinder(g.NumLines)
	}

	c.Reset()

	return nil
}

// Reset invalidates every line and zeroes all replacement counters, the
// step counter, and the statistics, without changing mode or geometry.
func (c *Cache) Reset() {
	for i := range c.lines {
		c.lines[i] = Block{
			SetID: i / c.geom.Assoc,
			WayID: i % c.geom.Assoc,
		}
	}

	c.finder.Reset()
	c.step = 0
	c.stats = Stats{}
}

// WithVictimFinder overrides the replacement policy installed by Configure.
func (c *Cache) WithVictimFinder(f VictimFinder) *Cache {
	c.finder = f
	return c
}

// Mode returns the current organization.
func (c *Cache) Mode() Mode { return c.mode }

// Geometry returns the current geometry, with the associativity the model
// actually uses under the current mode.
func (c *Cache) Geometry() Geometry { return c.geom }

// Access resolves one memory operation. It either hits a resident line or
// fills a victim line, and reports which line was affected, the address's
// bit-field breakdown, and the evicted tag if a valid block was replaced.
// An invalid address is rejected before any state changes.
func (c *Cache) Access(op Op, addr int64) (AccessResult, error) {
	if len(c.lines) == 0 {
		return AccessResult{}, fmt.Errorf("cache is not configured")
	}

	if addr < 0 {
		return AccessResult{}, fmt.Errorf(
			"address must be non-negative, got %d", addr)
	}

	fields := Decompose(c.mode, c.geom, uint64(addr))

	c.step++
	c.stats.Accesses++

	if index, found := c.search(fields); found {
		return c.recordHit(op, addr, index, fields), nil
	}

	return c.fill(op, addr, fields), nil
}

// search scans the lines an address may reside in, in ascending index
// order. At most one line in the scanned scope can validly match a tag.
func (c *Cache) search(fields Fields) (int, bool) {
	switch c.mode {
	case ModeDirect:
		block := c.lines[fields.Index]
		if block.IsValid && block.Tag == fields.Tag {
			return fields.Index, true
		}
	case ModeSetAssociative:
		base := fields.Index * c.geom.Assoc
		for way := 0; way < c.geom.Assoc; way++ {
			block := c.lines[base+way]
			if block.IsValid && block.Tag == fields.Tag {
				return base + way, true
			}
		}
	case ModeFullyAssociative:
		for i := range c.lines {
			block := c.lines[i]
			if block.IsValid && block.Tag == fields.Tag {
				return i, true
			}
		}
	}

	return 0, false
}

func (c *Cache) recordHit(
	op Op,
	addr int64,
	index int,
	fields Fields,
) AccessResult {
	line := &c.lines[index]
	line.LastAccess = c.step

	if op == OpStore {
		line.Data = describe(op, addr)
	}

	c.stats.Hits++

	return AccessResult{
		Outcome:   OutcomeHit,
		LineIndex: index,
		Fields:    fields,
		Step:      c.step,
	}
}

func (c *Cache) fill(op Op, addr int64, fields Fields) AccessResult {
	index := c.finder.FindVictim(c.lines, fields)
	line := &c.lines[index]

	result := AccessResult{
		Outcome:   OutcomeMiss,
		LineIndex: index,
		Fields:    fields,
		Step:      c.step,
	}

	if line.IsValid {
		result.Evicted = true
		result.EvictedTag = line.Tag
		c.stats.Evictions++
	}

	line.IsValid = true
	line.Tag = fields.Tag
	line.Data = describe(op, addr)
	line.LastAccess = c.step

	c.stats.Misses++

	return result
}

// Snapshot copies the current cache state for display.
func (c *Cache) Snapshot() Snapshot {
	lines := make([]Block, len(c.lines))
	copy(lines, c.lines)

	var counters []int
	if src := c.finder.Counters(); src != nil {
		counters = make([]int, len(src))
		copy(counters, src)
	}

	return Snapshot{
		Mode:     c.mode,
		Geometry: c.geom,
		Lines:    lines,
		Counters: counters,
		Stats:    c.stats,
		Step:     c.step,
	}
}

func describe(op Op, addr int64) string {
	return fmt.Sprintf("%s 0x%X", op, addr)
}
