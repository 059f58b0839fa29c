package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/CTAG07/Drosera/pkg/chain"
	"github.com/CTAG07/Drosera/pkg/chainstore"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newTokenizer builds the tokenizer the chain trains and generates with.
// The pattern must stay the same between training and any later load of the
// persisted chain, which is why it lives in the config file.
func newTokenizer(cfg *Config) chain.Tokenizer {
	if cfg.TokenPattern == "" {
		return chain.NewRegexpTokenizer()
	}
	return chain.NewRegexpTokenizer(chain.WithPattern(cfg.TokenPattern))
}

// trainFromDir feeds every regular file directly under dir into c.
func trainFromDir(c *chain.Chain, dir string, logger *slog.Logger) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("can't read training files from %s: %w", dir, err)
	}

	trained := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Skipping unreadable training file",
				slog.String("path", path),
				slog.Any("error", err),
			)
			continue
		}
		c.AddText(string(content))
		trained++
		logger.Debug("Trained on file",
			slog.String("path", path),
			slog.Int("bytes", len(content)),
		)
	}
	return trained, nil
}

func run() error {
	configPath := flag.String("config", "./drosera_config.json", "path to the JSON config file")
	startText := flag.String("start", "", "seed text to prime generation with")
	rngSeed := flag.Uint64("seed", 0, "random seed; 0 picks a random one")
	exportPath := flag.String("export", "", "write the trained chain to this JSON file and exit")
	version := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *version {
		fmt.Printf("drosera %s (%s, built %s)\n", Version, Commit, BuildDate)
		return nil
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	ctx := context.Background()

	tokenizer := newTokenizer(cfg)
	c, err := chain.NewChainWithCapacity(cfg.Order, cfg.CapacityHint, tokenizer)
	if err != nil {
		return err
	}
	c.SetLogger(logger)

	trained, err := trainFromDir(c, cfg.DataDir, logger)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	var store *chainstore.Store
	if cfg.DatabasePath != "" {
		db, err := initDB(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() { _ = db.Close() }()

		if err = chainstore.SetupSchema(db); err != nil {
			return err
		}
		store, err = chainstore.NewStore(db)
		if err != nil {
			return err
		}
		defer store.Close()
		store.SetLogger(logger)
	}

	if trained > 0 {
		stats := c.Stats()
		logger.Info("Training completed",
			slog.Int("files", trained),
			slog.Int("tokens", stats.Tokens),
			slog.Int("contexts", stats.Contexts),
			slog.Int("transitions", stats.Transitions),
		)
		if store != nil {
			if err = store.Save(ctx, cfg.ChainName, c); err != nil {
				return fmt.Errorf("failed to save chain: %w", err)
			}
		}
	} else if store != nil {
		// Nothing to train on; fall back to the persisted chain.
		c, err = store.Load(ctx, cfg.ChainName, tokenizer)
		if err != nil {
			return fmt.Errorf("no training data and no stored chain: %w", err)
		}
		c.SetLogger(logger)
	} else {
		return fmt.Errorf("no training data in %s and no database configured", cfg.DataDir)
	}

	if *exportPath != "" {
		if err = chainstore.ExportFile(*exportPath, cfg.ChainName, c); err != nil {
			return err
		}
		logger.Info("Chain exported", slog.String("path", *exportPath))
		return nil
	}

	seed := *rngSeed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	logger.Info("Generating",
		slog.Uint64("seed", seed),
		slog.Int("count", cfg.OutputCount),
		slog.Int("length", cfg.OutputLength),
	)

	for i := 0; i < cfg.OutputCount; i++ {
		var out string
		if *startText != "" {
			out, err = c.GenerateStart(*startText, cfg.OutputLength, rng)
			if err != nil {
				return err
			}
		} else {
			out = c.Generate(cfg.OutputLength, rng)
		}
		fmt.Println(out)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
