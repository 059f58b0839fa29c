package chain

import (
	"fmt"
	"math/rand/v2"
)

// transition is one successor of a context with its accumulated weight.
// Weights only ever increase while the chain is trained.
type transition struct {
	next   TokenID
	weight int
}

// state holds the successors recorded for one context in first-seen order,
// plus the sum of their weights. First-seen order is what makes cumulative
// sampling reproducible for a fixed training history.
type state struct {
	succ  []transition
	total int
}

// add increments the weight for next, appending it if unseen. Fan-out per
// context is small in practice, so a linear scan beats an index map.
func (s *state) add(next TokenID, weight int) (created bool) {
	for i := range s.succ {
		if s.succ[i].next == next {
			s.succ[i].weight += weight
			s.total += weight
			return false
		}
	}
	s.succ = append(s.succ, transition{next: next, weight: weight})
	s.total += weight
	return true
}

// table maps canonical context keys to their weighted successor
// distributions.
type table struct {
	states      map[string]*state
	transitions int
	totalWeight int
}

func newTable(capacity int) *table {
	if capacity < 0 {
		capacity = 0
	}
	return &table{states: make(map[string]*state, capacity)}
}

// record increments the weight of (key, next) by weight, creating the entry
// if absent. weight must be positive; the table is unmodified otherwise.
func (t *table) record(key string, next TokenID, weight int) error {
	if weight < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidWeight, weight)
	}
	s, ok := t.states[key]
	if !ok {
		s = &state{}
		t.states[key] = s
	}
	if s.add(next, weight) {
		t.transitions++
	}
	t.totalWeight += weight
	return nil
}

// sample draws a successor for key proportionally to recorded weights. The
// draw is uniform in [0, total) and the first successor whose cumulative
// weight exceeds the draw is selected, iterating in first-seen order. It
// reports false for a terminal context (no recorded successors).
func (t *table) sample(key string, rng *rand.Rand) (TokenID, bool) {
	s, ok := t.states[key]
	if !ok || len(s.succ) == 0 {
		return 0, false
	}
	draw := rng.Int64N(int64(s.total))
	for _, tr := range s.succ {
		draw -= int64(tr.weight)
		if draw < 0 {
			return tr.next, true
		}
	}
	// Unreachable: total is the sum of the weights iterated above.
	return s.succ[len(s.succ)-1].next, true
}
