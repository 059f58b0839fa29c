package chainstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/CTAG07/Drosera/pkg/chain"
)

// ErrNotFound is returned when a named chain does not exist in the store.
var ErrNotFound = errors.New("chainstore: chain not found")

// ChainInfo holds the metadata for a stored chain.
type ChainInfo struct {
	Id    int
	Name  string
	Order int
}

// SetupSchema initializes the necessary tables in the provided database.
// This function should be called once on a new database before any other
// operations are performed. It is idempotent and safe to call on an
// already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaChains = `
CREATE TABLE IF NOT EXISTS chains (
    chain_id INTEGER PRIMARY KEY,
    chain_name TEXT NOT NULL UNIQUE,
    chain_order INTEGER NOT NULL
);
`
		schemaTokens = `
CREATE TABLE IF NOT EXISTS chain_tokens (
    chain_id INTEGER NOT NULL,
    token_id INTEGER NOT NULL,
    token_text TEXT NOT NULL,
    PRIMARY KEY (chain_id, token_id)
);
`
		// seq preserves the first-seen successor order within each context,
		// which generation reproducibility depends on.
		schemaTransitions = `
CREATE TABLE IF NOT EXISTS chain_transitions (
    chain_id INTEGER NOT NULL,
    seq INTEGER NOT NULL,
    context_key TEXT NOT NULL,
    next_token_id INTEGER NOT NULL,
    weight INTEGER NOT NULL,
    PRIMARY KEY (chain_id, seq)
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaChains); err != nil {
		return fmt.Errorf("could not create chains schema: %w", err)
	}

	if _, err = tx.Exec(schemaTokens); err != nil {
		return fmt.Errorf("could not create tokens schema: %w", err)
	}

	if _, err = tx.Exec(schemaTransitions); err != nil {
		return fmt.Errorf("could not create transitions schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// Store persists chains into a SQL database. It holds the database
// connection and prepared SQL statements for efficient access.
type Store struct {
	db              *sql.DB
	stmtGetChain    *sql.Stmt
	stmtListChains  *sql.Stmt
	stmtInsertChain *sql.Stmt
	stmtGetTokens   *sql.Stmt
	stmtGetLinks    *sql.Stmt
	logger          *slog.Logger
}

// NewStore creates and returns a new Store over db. It pre-compiles the
// statements used by the read paths, returning an error if any preparation
// fails. SetupSchema must have been run against db.
func NewStore(db *sql.DB) (*Store, error) {
	stmtGetChain, err := db.Prepare(`SELECT chain_id, chain_order FROM chains WHERE chain_name = ?;`)
	if err != nil {
		return nil, err
	}

	stmtListChains, err := db.Prepare(`SELECT chain_id, chain_name, chain_order FROM chains;`)
	if err != nil {
		return nil, err
	}

	stmtInsertChain, err := db.Prepare(`INSERT INTO chains (chain_name, chain_order) VALUES (?, ?);`)
	if err != nil {
		return nil, err
	}

	stmtGetTokens, err := db.Prepare(`SELECT token_id, token_text FROM chain_tokens WHERE chain_id = ? ORDER BY token_id;`)
	if err != nil {
		return nil, err
	}

	stmtGetLinks, err := db.Prepare(`SELECT context_key, next_token_id, weight FROM chain_transitions WHERE chain_id = ? ORDER BY seq;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:              db,
		stmtGetChain:    stmtGetChain,
		stmtListChains:  stmtListChains,
		stmtInsertChain: stmtInsertChain,
		stmtGetTokens:   stmtGetTokens,
		stmtGetLinks:    stmtGetLinks,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases all prepared SQL statements held by the Store. It should be
// called when the Store is no longer needed to free up database resources.
func (s *Store) Close() {
	_ = s.stmtGetChain.Close()
	_ = s.stmtListChains.Close()
	_ = s.stmtInsertChain.Close()
	_ = s.stmtGetTokens.Close()
	_ = s.stmtGetLinks.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are
// discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// List retrieves metadata for all chains currently in the database.
func (s *Store) List(ctx context.Context) ([]ChainInfo, error) {
	rows, err := s.stmtListChains.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var infos []ChainInfo
	for rows.Next() {
		var info ChainInfo
		if err = rows.Scan(&info.Id, &info.Name, &info.Order); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return infos, nil
}

// Save writes c's full state under name, replacing any chain previously
// stored under that name. The operation is performed within a transaction.
func (s *Store) Save(ctx context.Context, name string, c *chain.Chain) error {
	snap := c.Snapshot()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction for save: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	var chainID, prevOrder int
	err = tx.StmtContext(ctx, s.stmtGetChain).QueryRowContext(ctx, name).Scan(&chainID, &prevOrder)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.StmtContext(ctx, s.stmtInsertChain).ExecContext(ctx, name, snap.Order)
		if err != nil {
			return fmt.Errorf("failed to insert chain '%s': %w", name, err)
		}
		newID, _ := res.LastInsertId()
		chainID = int(newID)
	case err != nil:
		return fmt.Errorf("failed to query for chain '%s': %w", name, err)
	default:
		// Replacing an existing chain: clear its old state first.
		if err = deleteChainData(ctx, tx, chainID); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, "UPDATE chains SET chain_order = ? WHERE chain_id = ?", snap.Order, chainID); err != nil {
			return fmt.Errorf("failed to update order for chain '%s': %w", name, err)
		}
	}

	stmtToken, err := tx.PrepareContext(ctx, `INSERT INTO chain_tokens (chain_id, token_id, token_text) VALUES (?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("failed to prepare token insert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtToken)

	for id, text := range snap.Tokens {
		if _, err = stmtToken.ExecContext(ctx, chainID, id, text); err != nil {
			return fmt.Errorf("failed to insert token %d: %w", id, err)
		}
	}

	stmtLink, err := tx.PrepareContext(ctx, `INSERT INTO chain_transitions (chain_id, seq, context_key, next_token_id, weight) VALUES (?, ?, ?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("failed to prepare transition insert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtLink)

	for seq, tr := range snap.Transitions {
		if _, err = stmtLink.ExecContext(ctx, chainID, seq, tr.Context, tr.Next, tr.Weight); err != nil {
			return fmt.Errorf("failed to insert transition %d: %w", seq, err)
		}
	}

	s.logger.InfoContext(ctx, "Chain saved",
		slog.String("chain_name", name),
		slog.Int("chain_id", chainID),
		slog.Int("tokens", len(snap.Tokens)),
		slog.Int("transitions", len(snap.Transitions)),
	)

	return tx.Commit()
}

// Load rebuilds the chain stored under name. The tokenizer is not persisted;
// callers must supply one matching the chain's training pattern (nil for the
// default). It returns ErrNotFound if no chain exists under name.
func (s *Store) Load(ctx context.Context, name string, tokenizer chain.Tokenizer) (*chain.Chain, error) {
	var chainID, order int
	err := s.stmtGetChain.QueryRowContext(ctx, name).Scan(&chainID, &order)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query for chain '%s': %w", name, err)
	}

	snap := &chain.Snapshot{Order: order}

	rows, err := s.stmtGetTokens.QueryContext(ctx, chainID)
	if err != nil {
		return nil, fmt.Errorf("could not query tokens for chain '%s': %w", name, err)
	}
	for rows.Next() {
		var id int
		var text string
		if err = rows.Scan(&id, &text); err != nil {
			_ = rows.Close()
			return nil, err
		}
		if id != len(snap.Tokens) {
			_ = rows.Close()
			return nil, fmt.Errorf("chainstore: chain '%s' has a gap in its token ids at %d", name, id)
		}
		snap.Tokens = append(snap.Tokens, text)
	}
	if err = rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	rows, err = s.stmtGetLinks.QueryContext(ctx, chainID)
	if err != nil {
		return nil, fmt.Errorf("could not query transitions for chain '%s': %w", name, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)
	for rows.Next() {
		var tr chain.Transition
		if err = rows.Scan(&tr.Context, &tr.Next, &tr.Weight); err != nil {
			return nil, err
		}
		snap.Transitions = append(snap.Transitions, tr)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	c, err := chain.FromSnapshot(snap, tokenizer)
	if err != nil {
		return nil, fmt.Errorf("stored chain '%s' is inconsistent: %w", name, err)
	}

	s.logger.InfoContext(ctx, "Chain loaded",
		slog.String("chain_name", name),
		slog.Int("chain_id", chainID),
		slog.Int("tokens", len(snap.Tokens)),
		slog.Int("transitions", len(snap.Transitions)),
	)

	return c, nil
}

// Delete removes a chain and all of its associated data from the database.
// The operation is performed within a transaction. Deleting a chain that
// does not exist is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	var chainID, order int
	err := s.stmtGetChain.QueryRowContext(ctx, name).Scan(&chainID, &order)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to query for chain '%s': %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if err = deleteChainData(ctx, tx, chainID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM chains WHERE chain_id = ?", chainID); err != nil {
		return fmt.Errorf("failed to remove chain %d: %w", chainID, err)
	}

	s.logger.InfoContext(ctx, "Chain removed",
		slog.String("chain_name", name),
		slog.Int("chain_id", chainID),
	)

	return tx.Commit()
}

func deleteChainData(ctx context.Context, tx *sql.Tx, chainID int) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM chain_tokens WHERE chain_id = ?", chainID); err != nil {
		return fmt.Errorf("failed to remove tokens for chain %d: %w", chainID, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chain_transitions WHERE chain_id = ?", chainID); err != nil {
		return fmt.Errorf("failed to remove transitions for chain %d: %w", chainID, err)
	}
	return nil
}
