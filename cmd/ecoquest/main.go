package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quidome/ecoquest-go/pkg/config"
	"github.com/quidome/ecoquest-go/pkg/exifread"
	"github.com/quidome/ecoquest-go/pkg/kvstore"
	"github.com/quidome/ecoquest-go/pkg/ledger"
	"github.com/quidome/ecoquest-go/pkg/logger"
	"github.com/quidome/ecoquest-go/pkg/profile"
	"github.com/quidome/ecoquest-go/pkg/verify"
)

const version = "0.1.0"

type options struct {
	verbose bool
	envFile string
	dataDir string
	backend string
	policy  string
	decoder string
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:     "ecoquest",
		Short:   "Verify eco-quest proof photos",
		Long:    "EcoQuest checks photos submitted as quest proof: fingerprints them, detects reuse across players, reads capture metadata and reports a verdict.",
		Version: version,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("EcoQuest CLI")
			cmd.Printf("Version: %s\n", version)
			cmd.Println("")
			cmd.Println("Use --help to see available commands and options")
		},
	}

	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&opts.envFile, "env-file", ".env", "optional dotenv file with ECOQUEST_* settings")
	flags.StringVar(&opts.dataDir, "data-dir", "", "directory for the ledger and database (overrides ECOQUEST_DATA_DIR)")
	flags.StringVar(&opts.backend, "backend", "", "ledger backend: file, sqlite or memory (overrides ECOQUEST_LEDGER_BACKEND)")
	flags.StringVar(&opts.policy, "policy", "", "verification policy: permissive or strict (overrides ECOQUEST_POLICY)")
	flags.StringVar(&opts.decoder, "exif-decoder", "", "metadata reader: auto, goexif or scan (overrides ECOQUEST_EXIF_DECODER)")

	rootCmd.AddCommand(newVerifyCmd(opts))
	rootCmd.AddCommand(newExifCmd(opts))
	rootCmd.AddCommand(newHashCmd())
	rootCmd.AddCommand(newLedgerCmd(opts))
	rootCmd.AddCommand(newSignUpCmd(opts))
	rootCmd.AddCommand(newSignInCmd(opts))
	rootCmd.AddCommand(newHatchCmd(opts))
	rootCmd.AddCommand(newLeaderboardCmd(opts))

	return rootCmd
}

// env is everything a command needs, built from config and flags.
type env struct {
	cfg     *config.Config
	log     *zap.Logger
	closers []func() error
}

func (o *options) open() (*env, error) {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return nil, err
	}
	if o.dataDir != "" {
		cfg.App.DataDir = o.dataDir
		cfg.App.DBPath = filepath.Join(o.dataDir, "ecoquest.db")
	}
	if o.backend != "" {
		cfg.Ledger.Backend = o.backend
	}
	if o.policy != "" {
		cfg.Verify.Policy = o.policy
	}
	if o.decoder != "" {
		cfg.Verify.ExifDecoder = o.decoder
	}

	level := cfg.App.LogLevel
	if o.verbose {
		level = "debug"
	}
	log, err := logger.New(level)
	if err != nil {
		return nil, err
	}

	if cfg.Ledger.Backend != config.BackendMemory {
		if err := cfg.EnsureDirs(); err != nil {
			return nil, err
		}
	}
	return &env{cfg: cfg, log: log}, nil
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.log.Warn("close failed", zap.Error(err))
		}
	}
	_ = e.log.Sync()
}

func (e *env) store() (kvstore.Store, error) {
	switch e.cfg.Ledger.Backend {
	case config.BackendMemory:
		return kvstore.NewMemory(), nil
	case config.BackendFile:
		return kvstore.NewFile(filepath.Join(e.cfg.App.DataDir, "kv"))
	case config.BackendSQLite:
		s, err := kvstore.OpenSQLite(e.cfg.App.DBPath)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, s.Close)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", e.cfg.Ledger.Backend)
	}
}

func (e *env) ledger() (*ledger.Ledger, error) {
	store, err := e.store()
	if err != nil {
		return nil, err
	}
	return ledger.New(store, ledger.Options{
		Key:      e.cfg.Ledger.Key,
		Capacity: e.cfg.Ledger.Capacity,
		Logger:   e.log,
	}), nil
}

func (e *env) verifier() (*verify.Verifier, error) {
	l, err := e.ledger()
	if err != nil {
		return nil, err
	}
	extractor, err := exifread.Select(exifread.Mode(e.cfg.Verify.ExifDecoder))
	if err != nil {
		return nil, err
	}
	policy, err := verify.PolicyByName(e.cfg.Verify.Policy)
	if err != nil {
		return nil, err
	}
	if policy.Location, err = e.cfg.Location(); err != nil {
		return nil, err
	}
	return &verify.Verifier{
		Ledger:    l,
		Extractor: extractor,
		Policy:    policy,
		Timeout:   e.cfg.Verify.Timeout,
		Logger:    e.log,
	}, nil
}

func (e *env) profiles() (profile.Store, error) {
	if e.cfg.Ledger.Backend == config.BackendMemory {
		return profile.NewMemoryStore(), nil
	}
	s, err := profile.OpenSQLiteStore(e.cfg.App.DBPath)
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, s.Close)
	return s, nil
}
