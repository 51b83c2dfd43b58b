package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"uiscout/internal/config"
	"uiscout/internal/logging"
	"uiscout/internal/store"
)

var (
	// Global flags
	verbose bool
	dataDir string

	// Loaded configuration, shared by all subcommands.
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "uiscout - systematic UI exploration and voice command learning",
	Long: `uiscout explores an application's UI, fingerprints every element it
finds, and turns what it learned into voice commands.

Exploration runs through a platform bridge: the web bridge drives a real
browser over CDP, the capture bridge watches a directory where a platform
companion drops UI snapshots. Everything learned lands in one SQLite
database that the match, export, and status commands read back.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if dataDir == "" {
			dataDir = config.DefaultDataDir()
		}

		var err error
		cfg, err = config.Load(dataDir)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// The file logger and audit trail are best-effort: a read-only
		// data directory should not keep the CLI from reading the DB.
		if err := logging.Initialize(dataDir); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
		}
		if err := logging.InitAudit(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: audit trail disabled: %v\n", err)
		}

		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAudit()
		logging.CloseAll()
	},
}

// openStore opens the configured database. Callers own Close.
func openStore() (*store.Store, error) {
	st, err := store.New(cfg.Store.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Store.DatabasePath, err)
	}
	return st, nil
}

// zapNotifier surfaces engine announcements through the operator log. On a
// device these would be spoken; on a workstation the log line is the surface.
type zapNotifier struct {
	log *zap.Logger
}

func (n zapNotifier) FallbackAssigned(elementHash, phrase, summary string) {
	n.log.Info("Fallback command assigned",
		zap.String("element", elementHash),
		zap.String("phrase", phrase),
		zap.String("summary", summary))
}

func (n zapNotifier) ExplorationFinished(app string, screens, elements int, err error) {
	if err != nil {
		n.log.Warn("Exploration finished with error",
			zap.String("app", app),
			zap.Int("screens", screens),
			zap.Int("elements", elements),
			zap.Error(err))
		return
	}
	n.log.Info("Exploration finished",
		zap.String("app", app),
		zap.Int("screens", screens),
		zap.Int("elements", elements))
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default: $UISCOUT_DATA or ~/.uiscout)")

	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(commandsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(relearnCmd)
	rootCmd.AddCommand(deleteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
