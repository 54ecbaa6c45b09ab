// ABOUTME: Citation domain model links generated answer text back to extracted blocks
// ABOUTME: Citations resolve lazily and may legitimately point at no block

package domain

// Citation is a reference embedded in a generated answer pointing back
// to a specific block. Resolution happens against the currently held
// block set at display time, not at parse time, so a citation may be
// stale if the blocks have since been replaced.
type Citation struct {
	// BlockID is the referenced block identifier
	BlockID string `json:"blockId"`

	// Snippet is a short display label for the reference
	Snippet string `json:"snippet"`
}

// Resolve returns the referenced block from the given set, or false if
// no held block carries the identifier (a stale citation).
func (c Citation) Resolve(blocks []Block) (Block, bool) {
	for _, b := range blocks {
		if b.ID == c.BlockID {
			return b, true
		}
	}
	return Block{}, false
}
