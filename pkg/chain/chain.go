package chain

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
)

// Chain is an order-N Markov chain over interned text tokens. It owns its
// Interner and transition table; the order is fixed at construction and
// never changes.
//
// A Chain is not safe for concurrent mutation. Generation is read-only and
// may run concurrently as long as no AddText, AddTextWeighted, or Merge call
// is in flight.
type Chain struct {
	order     int
	interner  *Interner
	table     *table
	tokenizer Tokenizer
	logger    *slog.Logger
}

// NewChain creates an empty chain of the given order. A nil tokenizer
// selects NewRegexpTokenizer's defaults.
func NewChain(order int, tokenizer Tokenizer) (*Chain, error) {
	return NewChainWithCapacity(order, 0, tokenizer)
}

// NewChainWithCapacity creates an empty chain whose interner and table are
// presized for roughly capacity tokens. The hint is advisory; it only
// reduces reallocation during training.
func NewChainWithCapacity(order, capacity int, tokenizer Tokenizer) (*Chain, error) {
	if order < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, order)
	}
	if tokenizer == nil {
		tokenizer = NewRegexpTokenizer()
	}
	return &Chain{
		order:     order,
		interner:  NewInterner(capacity),
		table:     newTable(capacity),
		tokenizer: tokenizer,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// SetLogger sets the logger for the chain. By default, all logs are
// discarded.
func (c *Chain) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// Order returns the chain's order.
func (c *Chain) Order() int { return c.order }

// Len returns the number of distinct interned tokens.
func (c *Chain) Len() int { return c.interner.Len() }

// Tokenizer returns the tokenizer the chain trains and generates with.
func (c *Chain) Tokenizer() Tokenizer { return c.tokenizer }

// AddText trains the chain on text with weight 1. A text that produces no
// tokens is a no-op.
func (c *Chain) AddText(text string) {
	// A weight of 1 cannot fail record's validation.
	_ = c.addTokens(c.tokenizer.Split(text), 1)
}

// AddTextWeighted trains the chain on text, recording every transition with
// the supplied weight instead of 1 so callers can bias certain corpora more
// heavily. It returns ErrInvalidWeight for weights below 1.
func (c *Chain) AddTextWeighted(text string, weight int) error {
	if weight < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidWeight, weight)
	}
	return c.addTokens(c.tokenizer.Split(text), weight)
}

// addTokens slides a fresh context window over tokens, recording a
// transition from the window's state before each token to that token's id.
// The leading sub-order windows, the empty window included, are recorded
// under their short keys; generation starts from the same empty window, so
// the keys line up.
func (c *Chain) addTokens(tokens []string, weight int) error {
	if len(tokens) == 0 {
		return nil
	}
	win := newWindow(c.order)
	var keyBuf []byte
	for _, text := range tokens {
		id := c.interner.Intern(text)
		keyBuf = win.AppendKey(keyBuf[:0])
		if err := c.table.record(string(keyBuf), id, weight); err != nil {
			return err
		}
		win.Push(id)
	}
	c.logger.Debug("Training text processed",
		slog.Int("tokens", len(tokens)),
		slog.Int("weight", weight),
		slog.Int("vocabulary_size", c.interner.Len()),
	)
	return nil
}

// Merge folds other's trained state into c, summing weights for matching
// (context, successor) pairs and adopting the rest in other's first-seen
// order. Weight sums are associative and commutative, so partitioned
// training can merge partial chains in any grouping. Both chains must have
// the same order; other is left unmodified.
func (c *Chain) Merge(other *Chain) error {
	if other.order != c.order {
		return fmt.Errorf("%w: %d vs %d", ErrOrderMismatch, c.order, other.order)
	}

	remap := make([]TokenID, other.interner.Len())
	for oldID, text := range other.interner.texts {
		remap[oldID] = c.interner.Intern(text)
	}

	var keyBuf []byte
	for key, s := range other.table.states {
		oldIDs, err := parseKey(key)
		if err != nil {
			return err
		}
		keyBuf = keyBuf[:0]
		for i, oldID := range oldIDs {
			if int(oldID) >= len(remap) {
				return fmt.Errorf("%w: context key %q references token %d", ErrOutOfRange, key, oldID)
			}
			if i > 0 {
				keyBuf = append(keyBuf, ' ')
			}
			keyBuf = strconv.AppendUint(keyBuf, uint64(remap[oldID]), 10)
		}
		newKey := string(keyBuf)

		for _, tr := range s.succ {
			if int(tr.next) >= len(remap) {
				return fmt.Errorf("%w: transition references token %d", ErrOutOfRange, tr.next)
			}
			if err := c.table.record(newKey, remap[tr.next], tr.weight); err != nil {
				return err
			}
		}
	}

	c.logger.Debug("Chains merged",
		slog.Int("merged_tokens", other.interner.Len()),
		slog.Int("merged_contexts", len(other.table.states)),
		slog.Int("vocabulary_size", c.interner.Len()),
	)
	return nil
}
