package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stefanpenner/habitual/pkg/config"
	"github.com/stefanpenner/habitual/pkg/logging"
	"github.com/stefanpenner/habitual/pkg/reflection"
	"github.com/stefanpenner/habitual/pkg/sqlstore"
	"github.com/stefanpenner/habitual/pkg/store"
	hsync "github.com/stefanpenner/habitual/pkg/sync"
	"github.com/stefanpenner/habitual/pkg/tui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every command needs once flags and config are resolved.
type app struct {
	// flags
	configPath string
	dataDir    string
	storage    string
	jsonOutput bool

	cfg    *config.Config
	repo   store.Repository
	close  func() error
	logger *zap.Logger
	now    func() time.Time
}

func newRootCmd() *cobra.Command {
	return newRootCmdFor(&app{now: time.Now})
}

func newRootCmdFor(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "habitual",
		Short: "Track daily habits, streaks and what your notes say about them",
		Long: `habitual keeps a log of daily habits in plain files (or SQLite).
Run without arguments for the interactive view.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.config/habitual/config.yaml)")
	flags.StringVar(&a.dataDir, "dir", "", "data directory (overrides config and HABITUAL_DATA_DIR)")
	flags.StringVar(&a.storage, "storage", "", "storage backend: files or sqlite")
	flags.BoolVar(&a.jsonOutput, "json", false, "print JSON instead of text")

	root.AddCommand(
		a.listCmd(),
		a.addCmd(),
		a.statusCmd("done", store.StatusDone, "Mark a habit done"),
		a.statusCmd("skip", store.StatusNotDone, "Mark a habit not done"),
		a.statusCmd("gap", store.StatusNoData, "Mark a day as not tracked"),
		a.toggleCmd(),
		a.noteCmd(),
		a.statsCmd(),
		a.notesCmd(),
		a.reflectCmd(),
		a.archiveCmd(),
		a.deleteCmd(),
		a.searchCmd(),
		a.initCmd(),
		a.syncCmd(),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	if a.storage != "" {
		cfg.Storage = a.storage
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.logger = logger.With(zap.String("data_dir", cfg.DataDir))

	repo, closeFn, err := openRepo(cfg)
	if err != nil {
		return err
	}
	a.repo = repo
	a.close = closeFn
	a.logger.Debug("storage opened", zap.String("storage", cfg.Storage))
	return nil
}

func (a *app) teardown() error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.close != nil {
		return a.close()
	}
	return nil
}

// openRepo opens the configured backend.
func openRepo(cfg *config.Config) (store.Repository, func() error, error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		s, err := sqlstore.Open(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		s, err := store.NewStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	}
}

func (a *app) reflector() *reflection.Reflector {
	builder := reflection.NewBuilder(a.repo, a.logger)
	builder.Clock = a.now
	return &reflection.Reflector{
		Builder: builder,
		Cache:   reflection.NewCache(a.cfg.Reflection.CacheSize, a.cfg.Reflection.CacheTTL),
		Logger:  a.logger,
	}
}

func (a *app) runTUI() error {
	syncer := hsync.NewRepo(a.cfg.DataDir, io.Discard, a.logger)
	m := tui.NewModel(a.repo, a.reflector(), syncer, a.logger)
	p := tea.NewProgram(m, tea.WithAltScreen())

	cleanup, err := tui.StartWatcher(a.cfg.DataDir, p, a.logger)
	if err != nil {
		a.logger.Warn("file watcher failed", zap.Error(err))
	} else {
		defer cleanup()
	}

	_, err = p.Run()
	return err
}

func (a *app) ctx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
