// Package cli implements the memoryd CLI commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rcliao/memoryd/internal/config"
	"github.com/rcliao/memoryd/internal/ledger"
	"github.com/rcliao/memoryd/internal/memory"
	"github.com/rcliao/memoryd/internal/oracle"
	"github.com/rcliao/memoryd/internal/reflection"
)

var (
	configPath string
	dbPath     string
	memoryDir  string
	verbose    bool

	logger *zap.Logger
	cfg    config.Config
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "memoryd",
	Short: "Personal-memory consolidation service",
	Long:  "Accumulates chat messages, periodically distills them into categorized facts, and stores them as markdown for future personalization.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $MEMORYD_CONFIG or ~/.memoryd/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Ledger database path (default: $MEMORYD_DB or ~/.memoryd/ledger.db)")
	RootCmd.PersistentFlags().StringVarP(&memoryDir, "memory-dir", "m", "", "Memory directory (default: $MEMORYD_MEMORY_DIR or ~/.memoryd/memory)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	cobra.OnInitialize(func() {
		if configPath == "" {
			if env := os.Getenv("MEMORYD_CONFIG"); env != "" {
				configPath = env
			} else {
				configPath = filepath.Join(homeDir(), "config.yaml")
			}
		}
	})
}

func homeDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".memoryd")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if cfg.DatabasePath != "" {
		return cfg.DatabasePath
	}
	if env := os.Getenv("MEMORYD_DB"); env != "" {
		return env
	}
	return filepath.Join(homeDir(), "ledger.db")
}

func getMemoryDir() string {
	if memoryDir != "" {
		return memoryDir
	}
	if cfg.MemoryDir != "" {
		return cfg.MemoryDir
	}
	if env := os.Getenv("MEMORYD_MEMORY_DIR"); env != "" {
		return env
	}
	return filepath.Join(homeDir(), "memory")
}

func openLedger() (*ledger.SQLiteLedger, error) {
	return ledger.NewSQLiteLedger(getDBPath())
}

func openMemoryStore() (*memory.Store, error) {
	s, err := memory.NewStore(getMemoryDir())
	if err != nil {
		return nil, err
	}
	if err := s.EnsureInitialized(); err != nil {
		return nil, err
	}
	return s, nil
}

func schedulerOptions() reflection.SchedulerOptions {
	return reflection.SchedulerOptions{
		TimeInterval:     cfg.Reflection.TimeInterval(),
		MessageThreshold: cfg.Reflection.MessageThreshold,
		PollTick:         cfg.Reflection.PollTick(),
		BatchLimit:       cfg.Reflection.BatchLimit,
		OracleTimeout:    cfg.Reflection.OracleTimeout(),
	}
}

func newOracle(ctx context.Context) (*oracle.Gemini, error) {
	key := cfg.Oracle.ResolveAPIKey()
	if key == "" {
		return nil, fmt.Errorf("no API key: set oracle.api_key in config or GOOGLE_API_KEY")
	}
	return oracle.NewGemini(ctx, key, cfg.Oracle.Model)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
