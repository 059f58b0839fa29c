package chainstore

import (
	"context"
	"database/sql"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/CTAG07/Drosera/pkg/chain"
	_ "github.com/mattn/go-sqlite3"
)

// setupTestStore creates a new file-backed SQLite database and a Store for
// testing. It uses t.Cleanup to ensure resources are released.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbFile+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}

	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(s.Close)

	return s
}

// newTrainedChain builds a chain over the default tokenizer and trains it.
func newTrainedChain(t *testing.T, order int, texts ...string) *chain.Chain {
	t.Helper()
	c, err := chain.NewChain(order, nil)
	if err != nil {
		t.Fatalf("NewChain(%d) failed: %v", order, err)
	}
	for _, text := range texts {
		c.AddText(text)
	}
	return c
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func TestSetupSchemaIdempotent(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbFile)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("first SetupSchema failed: %v", err)
	}
	if err := SetupSchema(db); err != nil {
		t.Fatalf("second SetupSchema failed: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	original := newTrainedChain(t, 2,
		"one fish two fish. red fish blue fish.",
		"the cat sat on the mat",
	)

	if err := s.Save(ctx, "test_chain", original); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	restored, err := s.Load(ctx, "test_chain", nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if original.Order() != restored.Order() {
		t.Errorf("order = %d after load, want %d", restored.Order(), original.Order())
	}
	if want, got := original.Stats(), restored.Stats(); want != got {
		t.Errorf("stats = %+v after load, want %+v", got, want)
	}
	for seed := uint64(1); seed <= 10; seed++ {
		a := original.Generate(25, newRand(seed))
		b := restored.Generate(25, newRand(seed))
		if a != b {
			t.Fatalf("seed %d: original generated %q, loaded chain generated %q", seed, a, b)
		}
	}
}

func TestSaveReplacesExisting(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := newTrainedChain(t, 2, "alpha beta gamma")
	if err := s.Save(ctx, "chain", first); err != nil {
		t.Fatalf("first Save() failed: %v", err)
	}

	second := newTrainedChain(t, 3, "delta epsilon zeta")
	if err := s.Save(ctx, "chain", second); err != nil {
		t.Fatalf("second Save() failed: %v", err)
	}

	restored, err := s.Load(ctx, "chain", nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if restored.Order() != 3 {
		t.Errorf("order = %d after replacement, want 3", restored.Order())
	}
	if got := restored.Generate(3, newRand(1)); got != "delta epsilon zeta" {
		t.Errorf("Generate = %q after replacement, want \"delta epsilon zeta\"", got)
	}

	infos, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(infos) != 1 {
		t.Errorf("List() returned %d chains after replacement, want 1", len(infos))
	}
}

func TestLoadNotFound(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.Load(context.Background(), "missing", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(\"missing\") error = %v, want ErrNotFound", err)
	}
}

func TestListAndDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"first", "second"} {
		if err := s.Save(ctx, name, newTrainedChain(t, 1, "a b c")); err != nil {
			t.Fatalf("Save(%q) failed: %v", name, err)
		}
	}

	infos, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("List() returned %d chains, want 2", len(infos))
	}

	if err := s.Delete(ctx, "first"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	// Deleting a chain that is already gone is a no-op.
	if err := s.Delete(ctx, "first"); err != nil {
		t.Fatalf("repeated Delete() failed: %v", err)
	}

	infos, err = s.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(infos) != 1 || infos[0].Name != "second" {
		t.Errorf("List() after delete = %+v, want only \"second\"", infos)
	}

	if _, err := s.Load(ctx, "first", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load after delete error = %v, want ErrNotFound", err)
	}
}
