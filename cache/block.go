package cache

// A Block is the information that is associated with one cache line.
type Block struct {
	Tag        uint64 `json:"tag"`
	SetID      int    `json:"set_id"`
	WayID      int    `json:"way_id"`
	IsValid    bool   `json:"is_valid"`
	Data       string `json:"data"`
	LastAccess uint64 `json:"last_access"`
}

// LineIndex returns the position of the block in the flat line array.
func (b Block) LineIndex(assoc int) int {
	return b.SetID*assoc + b.WayID
}
