package cache

import (
	"fmt"
	"strconv"
)

// Mode selects how an address maps to candidate cache lines.
type Mode int

// The three cache organizations that the model supports.
const (
	ModeDirect Mode = iota
	ModeSetAssociative
	ModeFullyAssociative
)

func (m Mode) String() string {
	switch m {
	case ModeDirect:
		return "direct"
	case ModeSetAssociative:
		return "set-associative"
	case ModeFullyAssociative:
		return "fully-associative"
	}

	return fmt.Sprintf("Mode(%d)", int(m))
}

// MarshalJSON encodes the mode as its name.
func (m Mode) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

// UnmarshalJSON decodes a mode name.
func (m *Mode) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return err
	}

	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}

	*m = parsed

	return nil
}

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "direct":
		return ModeDirect, nil
	case "set-associative":
		return ModeSetAssociative, nil
	case "fully-associative":
		return ModeFullyAssociative, nil
	}

	return 0, fmt.Errorf("unknown cache mode %q", s)
}

// Geometry holds the fixed constants of a cache organization.
type Geometry struct {
	NumLines  int `json:"num_lines"`  // total number of cache lines, power of two
	BlockSize int `json:"block_size"` // bytes per block, power of two
	Assoc     int `json:"assoc"`      // lines per set, set-associative mode only
}

// NumSets returns the number of sets in set-associative organization.
func (g Geometry) NumSets() int {
	return g.NumLines / g.Assoc
}

// TotalSize returns the maximum number of bytes the cache can store.
func (g Geometry) TotalSize() uint64 {
	return uint64(g.NumLines) * uint64(g.BlockSize)
}

// Validate checks that the geometry is internally consistent. The line count
// and block size must be powers of two so that offset and index are exact
// bit fields, and the associativity must evenly divide the line count.
func (g Geometry) Validate() error {
	if g.NumLines <= 0 || !isPowerOfTwo(g.NumLines) {
		return fmt.Errorf(
			"cache size must be a positive power of two, got %d", g.NumLines)
	}

	if g.BlockSize <= 0 || !isPowerOfTwo(g.BlockSize) {
		return fmt.Errorf(
			"block size must be a positive power of two, got %d", g.BlockSize)
	}

	if g.Assoc <= 0 {
		return fmt.Errorf("associativity must be positive, got %d", g.Assoc)
	}

	if g.NumLines%g.Assoc != 0 {
		return fmt.Errorf(
			"associativity %d does not divide cache size %d",
			g.Assoc, g.NumLines)
	}

	return nil
}

func isPowerOfTwo(n int) bool {
	return n&(n-1) == 0
}

// Fields is the bit-field breakdown of one address under one mode. Index is
// the line index in direct-mapped mode, the set index in set-associative
// mode, and NoIndex in fully-associative mode.
type Fields struct {
	Offset uint64 `json:"offset"`
	Index  int    `json:"index"`
	Tag    uint64 `json:"tag"`
}

// NoIndex marks the Index field of a fully-associative decomposition, where
// no address bits select a line.
const NoIndex = -1

// Decompose splits an address into offset, index/set, and tag under the
// given mode. It is a pure function of the address, the mode, and the
// geometry; it never depends on cache contents.
func Decompose(mode Mode, g Geometry, addr uint64) Fields {
	blockNumber := addr / uint64(g.BlockSize)
	offset := addr % uint64(g.BlockSize)

	switch mode {
	case ModeDirect:
		return Fields{
			Offset: offset,
			Index:  int(blockNumber % uint64(g.NumLines)),
			Tag:    blockNumber / uint64(g.NumLines),
		}
	case ModeSetAssociative:
		numSets := uint64(g.NumSets())
		return Fields{
			Offset: offset,
			Index:  int(blockNumber % numSets),
			Tag:    blockNumber / numSets,
		}
	case ModeFullyAssociative:
		return Fields{
			Offset: offset,
			Index:  NoIndex,
			Tag:    blockNumber,
		}
	}

	panic(fmt.Sprintf("unknown cache mode %d", int(mode)))
}
