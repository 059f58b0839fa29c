package chain

import (
	"fmt"
	"sort"
)

// Snapshot is the full serializable state of a trained chain: the order, the
// dense token list (index equals TokenID), and every weighted transition
// with per-context successor order preserved. A chain rebuilt from a
// snapshot samples identically to the original under the same random source.
type Snapshot struct {
	Order       int          `json:"order"`
	Tokens      []string     `json:"tokens"`
	Transitions []Transition `json:"transitions"`
}

// Transition is one (context, successor, weight) entry of a Snapshot.
type Transition struct {
	Context string  `json:"context"`
	Next    TokenID `json:"next"`
	Weight  int     `json:"weight"`
}

// Snapshot copies out the chain's state. Contexts are emitted in sorted
// order so exports are stable; successors keep their first-seen order within
// each context, which is what sampling reproducibility depends on.
func (c *Chain) Snapshot() *Snapshot {
	keys := make([]string, 0, len(c.table.states))
	for key := range c.table.states {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	snap := &Snapshot{
		Order:       c.order,
		Tokens:      append([]string(nil), c.interner.texts...),
		Transitions: make([]Transition, 0, c.table.transitions),
	}
	for _, key := range keys {
		for _, tr := range c.table.states[key].succ {
			snap.Transitions = append(snap.Transitions, Transition{
				Context: key,
				Next:    tr.next,
				Weight:  tr.weight,
			})
		}
	}
	return snap
}

// FromSnapshot rebuilds a chain from snap. The tokenizer is not part of the
// snapshot; callers must supply one matching the pattern the chain was
// trained with (nil for the default) so seed priming tokenizes the same way
// training did.
func FromSnapshot(snap *Snapshot, tokenizer Tokenizer) (*Chain, error) {
	c, err := NewChainWithCapacity(snap.Order, len(snap.Tokens), tokenizer)
	if err != nil {
		return nil, err
	}

	for _, text := range snap.Tokens {
		c.interner.Intern(text)
	}
	if c.interner.Len() != len(snap.Tokens) {
		return nil, fmt.Errorf("chain: snapshot token list contains duplicates")
	}

	for _, tr := range snap.Transitions {
		ids, err := parseKey(tr.Context)
		if err != nil {
			return nil, err
		}
		if len(ids) > snap.Order {
			return nil, fmt.Errorf("chain: context key %q longer than order %d", tr.Context, snap.Order)
		}
		for _, id := range ids {
			if int(id) >= len(snap.Tokens) {
				return nil, fmt.Errorf("%w: context key %q references token %d", ErrOutOfRange, tr.Context, id)
			}
		}
		if int(tr.Next) >= len(snap.Tokens) {
			return nil, fmt.Errorf("%w: transition references token %d", ErrOutOfRange, tr.Next)
		}
		if err := c.table.record(tr.Context, tr.Next, tr.Weight); err != nil {
			return nil, err
		}
	}
	return c, nil
}
