package chain

import "fmt"

// TokenID is the dense identifier assigned to a distinct token string.
// IDs are allocated sequentially from 0, so a slice indexed by TokenID
// serves as the reverse lookup table.
type TokenID uint32

// Interner owns the canonical token strings and maintains the bijection
// between token text and TokenID. It grows monotonically; tokens are never
// removed for the lifetime of the chain.
type Interner struct {
	ids   map[string]TokenID
	texts []string
}

// NewInterner creates an Interner presized for roughly capacity tokens.
// The hint is advisory, not a limit; it only reduces reallocation churn.
func NewInterner(capacity int) *Interner {
	if capacity < 0 {
		capacity = 0
	}
	return &Interner{
		ids:   make(map[string]TokenID, capacity),
		texts: make([]string, 0, capacity),
	}
}

// Intern returns the TokenID for text, allocating the next dense id if the
// text has not been seen before. Interning the same text twice always
// returns the same id.
func (in *Interner) Intern(text string) TokenID {
	if id, ok := in.ids[text]; ok {
		return id
	}
	id := TokenID(len(in.texts))
	in.ids[text] = id
	in.texts = append(in.texts, text)
	return id
}

// Lookup returns the TokenID for text without interning it.
func (in *Interner) Lookup(text string) (TokenID, bool) {
	id, ok := in.ids[text]
	return id, ok
}

// Resolve returns the token text for id. It returns ErrOutOfRange if the id
// was never allocated by this Interner.
func (in *Interner) Resolve(id TokenID) (string, error) {
	if int(id) >= len(in.texts) {
		return "", fmt.Errorf("%w: %d (have %d tokens)", ErrOutOfRange, id, len(in.texts))
	}
	return in.texts[id], nil
}

// Len returns the number of distinct interned tokens.
func (in *Interner) Len() int {
	return len(in.texts)
}
