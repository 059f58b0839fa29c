package chain

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
)

// Generate produces up to length tokens starting from the empty context and
// joins them with the chain's tokenizer. Generation stops early, returning
// the shorter output, when it reaches a context with no recorded successors.
func (c *Chain) Generate(length int, rng *rand.Rand) string {
	return c.join(c.GenerateTokens(length, rng))
}

// GenerateTokens is Generate without the final join, returning the sampled
// tokens in emission order.
func (c *Chain) GenerateTokens(length int, rng *rand.Rand) []string {
	return c.emit(newWindow(c.order), length, rng)
}

// GenerateStart tokenizes seed exactly as training does, primes the context
// window by replaying the seed tokens without recording transitions, then
// generates up to length tokens. The seed itself is not part of the output.
// It returns ErrUnknownToken if any seed token was never trained; a seed
// whose tokens are all known never fails, even if the seed was never
// observed as a contiguous sequence (generation then simply stops at the
// unseen context).
func (c *Chain) GenerateStart(seed string, length int, rng *rand.Rand) (string, error) {
	tokens, err := c.GenerateStartTokens(seed, length, rng)
	if err != nil {
		return "", err
	}
	return c.join(tokens), nil
}

// GenerateStartTokens is GenerateStart without the final join.
func (c *Chain) GenerateStartTokens(seed string, length int, rng *rand.Rand) ([]string, error) {
	win := newWindow(c.order)
	for _, text := range c.tokenizer.Split(seed) {
		id, ok := c.interner.Lookup(text)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownToken, text)
		}
		win.Push(id)
	}
	return c.emit(win, length, rng), nil
}

// emit is the sampling loop shared by the generate functions. Each emitted
// token is appended to the output and pushed into the window before the next
// draw.
func (c *Chain) emit(win *window, length int, rng *rand.Rand) []string {
	if length <= 0 {
		return nil
	}
	out := make([]string, 0, length)
	var keyBuf []byte
	for len(out) < length {
		keyBuf = win.AppendKey(keyBuf[:0])
		next, ok := c.table.sample(string(keyBuf), rng)
		if !ok {
			// Terminal context: a normal early stop, not an error.
			c.logger.Debug("Generation stopped at terminal context",
				slog.String("context", string(keyBuf)),
				slog.Int("generated", len(out)),
			)
			break
		}
		out = append(out, c.interner.texts[next])
		win.Push(next)
	}
	return out
}

// join assembles tokens into a single string, consulting the tokenizer for
// the separator between each adjacent pair so no extra whitespace is
// synthesized around tokens the pattern captured verbatim.
func (c *Chain) join(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(tokens[0])
	for i := 1; i < len(tokens); i++ {
		b.WriteString(c.tokenizer.Separator(tokens[i-1], tokens[i]))
		b.WriteString(tokens[i])
	}
	return b.String()
}
