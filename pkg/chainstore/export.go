package chainstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/CTAG07/Drosera/pkg/chain"
	"github.com/natefinch/atomic"
)

// ExportedChain is the serializable representation of a trained chain, used
// for JSON-based import and export.
type ExportedChain struct {
	Name  string          `json:"name"`
	Chain *chain.Snapshot `json:"chain"`
}

// Export serializes c into JSON and writes it to w. This is useful for
// backups or for transferring chains between processes.
func Export(w io.Writer, name string, c *chain.Chain) error {
	exported := ExportedChain{
		Name:  name,
		Chain: c.Snapshot(),
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exported)
}

// Import reads a JSON representation of a chain from r and rebuilds it. The
// tokenizer is not part of the export; callers must supply one matching the
// chain's training pattern (nil for the default).
func Import(r io.Reader, tokenizer chain.Tokenizer) (string, *chain.Chain, error) {
	var imported ExportedChain
	if err := json.NewDecoder(r).Decode(&imported); err != nil {
		return "", nil, fmt.Errorf("failed to decode json chain: %w", err)
	}
	if imported.Chain == nil {
		return "", nil, fmt.Errorf("chainstore: export contains no chain data")
	}

	c, err := chain.FromSnapshot(imported.Chain, tokenizer)
	if err != nil {
		return "", nil, fmt.Errorf("imported chain '%s' is inconsistent: %w", imported.Name, err)
	}
	return imported.Name, c, nil
}

// ExportFile writes the JSON export of c to path atomically, so a crash
// mid-write never leaves a truncated file behind.
func ExportFile(path, name string, c *chain.Chain) error {
	var buf bytes.Buffer
	if err := Export(&buf, name, c); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("failed to write chain file: %w", err)
	}
	return nil
}
