package feed

type txKey struct {
	block, tx int
}

// ExpandState records which displayed blocks and transactions are expanded.
// It is keyed by position on the page and kept apart from the fetched
// records, so replacing a page never touches it. Not safe for concurrent use.
type ExpandState struct {
	blocks map[int]bool
	txs    map[txKey]bool
}

func NewExpandState() *ExpandState {
	return &ExpandState{
		blocks: make(map[int]bool),
		txs:    make(map[txKey]bool),
	}
}

// ToggleBlock flips block i and returns its new state.
func (s *ExpandState) ToggleBlock(i int) bool {
	s.blocks[i] = !s.blocks[i]
	return s.blocks[i]
}

// ToggleTransaction flips transaction j of block i and returns its new state.
func (s *ExpandState) ToggleTransaction(i, j int) bool {
	k := txKey{i, j}
	s.txs[k] = !s.txs[k]
	return s.txs[k]
}

func (s *ExpandState) BlockExpanded(i int) bool {
	return s.blocks[i]
}

func (s *ExpandState) TransactionExpanded(i, j int) bool {
	return s.txs[txKey{i, j}]
}

// Reset collapses everything.
func (s *ExpandState) Reset() {
	clear(s.blocks)
	clear(s.txs)
}
