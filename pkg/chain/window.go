package chain

import (
	"fmt"
	"strconv"
	"strings"
)

// window is the trailing context of up to order token ids. It starts
// partial, holding only the ids pushed so far with no padding, and becomes
// full once order ids have been pushed; after that every Push evicts the
// oldest id. Both variants key identically for the same ordered content, so
// the short contexts at the start of a text match the keys generation builds
// before it has emitted order tokens.
type window struct {
	order int
	ids   []TokenID
}

func newWindow(order int) *window {
	return &window{order: order, ids: make([]TokenID, 0, order)}
}

// Push appends id, evicting the oldest id once the window is full. The
// logical length never exceeds the window's order.
func (w *window) Push(id TokenID) {
	if len(w.ids) == w.order {
		copy(w.ids, w.ids[1:])
		w.ids[w.order-1] = id
		return
	}
	w.ids = append(w.ids, id)
}

// Len returns the logical length, at most the window's order.
func (w *window) Len() int { return len(w.ids) }

// AppendKey appends the window's canonical key to buf and returns it. The
// table stores this key, never the window itself, so later pushes cannot
// corrupt table state.
func (w *window) AppendKey(buf []byte) []byte {
	return appendKey(buf, w.ids)
}

// Key returns the canonical lookup key: the space-joined decimal ids, which
// is injective over ordered id sequences. The empty window keys as "".
func (w *window) Key() string {
	return string(w.AppendKey(nil))
}

func appendKey(buf []byte, ids []TokenID) []byte {
	for i, id := range ids {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = strconv.AppendUint(buf, uint64(id), 10)
	}
	return buf
}

// parseKey decodes a canonical context key back into its token ids.
func parseKey(key string) ([]TokenID, error) {
	if key == "" {
		return nil, nil
	}
	parts := strings.Split(key, " ")
	ids := make([]TokenID, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("chain: malformed context key %q: %w", key, err)
		}
		ids[i] = TokenID(v)
	}
	return ids, nil
}
