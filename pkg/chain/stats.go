package chain

// Stats holds aggregated counters for a chain's trained state.
type Stats struct {
	Tokens      int // The number of distinct interned tokens.
	Contexts    int // The number of distinct context keys with recorded successors.
	Transitions int // The number of unique context->successor links.
	TotalWeight int // The sum of all link weights; the total number of trained transitions.
}

// Stats returns a snapshot of the chain's counters.
func (c *Chain) Stats() Stats {
	return Stats{
		Tokens:      c.interner.Len(),
		Contexts:    len(c.table.states),
		Transitions: c.table.transitions,
		TotalWeight: c.table.totalWeight,
	}
}
