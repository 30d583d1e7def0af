package cli

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/hydrate/internal/config"
	"github.com/roach88/hydrate/internal/engine"
	"github.com/roach88/hydrate/internal/intake"
	"github.com/roach88/hydrate/internal/notify"
	"github.com/roach88/hydrate/internal/state"
	"github.com/roach88/hydrate/internal/status"
	"github.com/roach88/hydrate/internal/store"
	"github.com/roach88/hydrate/internal/syncer"
)

// app is everything a command needs, wired from config and flags.
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	store     store.Persistence
	state     *state.State
	syncer    *syncer.Syncer
	engine    *engine.Engine
	formatter *OutputFormatter
	packaged  bool
}

// newFormatter builds the output formatter for cmd.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// newLogger returns a text logger on w, at debug level when verbose.
func newLogger(verbose bool, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// openApp loads config, opens the store and wires the engine.
// The caller must Close the returned app.
func openApp(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*app, error) {
	f := newFormatter(opts, cmd)
	logger := newLogger(opts.Verbose, cmd.ErrOrStderr())

	cfgPath := config.ResolvePath(opts.ConfigPath)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, f.Fail(ExitCommandError, CodeConfig, "failed to load config", err)
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.Backend != "" {
		cfg.Backend = opts.Backend
	}
	logger.Debug("config loaded", "path", cfgPath, "data_dir", cfg.DataDir, "backend", cfg.Backend)

	p, err := store.Open(cfg.Backend, cfg.DataDir)
	if err != nil {
		return nil, f.Fail(ExitCommandError, CodeStore, "failed to open data store", err)
	}

	packaged := intake.IsPackaged()
	st := state.Load(ctx, p, state.WithLogger(logger))

	syncOpts := []syncer.Option{
		syncer.WithTimeout(cfg.RequestTimeout),
		syncer.WithPackaged(packaged),
		syncer.WithLogger(logger),
	}
	if cfg.AppKey != "" {
		syncOpts = append(syncOpts, syncer.WithAppKey(cfg.AppKey))
	}
	sy := syncer.New(st, syncOpts...)

	sinks := []notify.Sink{notify.NewWriterSink(cmd.OutOrStdout())}
	if opts.Verbose {
		sinks = append(sinks, notify.LogSink{Logger: logger})
	}
	sink := notify.NewDispatcher(logger, sinks...)

	eng := engine.New(st, sy, sink,
		engine.WithAmountMl(cfg.AmountMl),
		engine.WithSyncInterval(cfg.SyncInterval),
		engine.WithReminderCheckInterval(cfg.ReminderCheckInterval),
		engine.WithPackaged(packaged),
		engine.WithLogger(logger),
	)

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     p,
		state:     st,
		syncer:    sy,
		engine:    eng,
		formatter: f,
		packaged:  packaged,
	}, nil
}

// Close releases the store.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing store", "error", err)
	}
}

// statusOutput renders a Status as text while encoding as plain JSON.
type statusOutput struct {
	status.Status
}

func (s statusOutput) String() string {
	return formatStatus(s.Status)
}

// settingsOutput renders Settings as text while encoding as plain JSON.
type settingsOutput struct {
	status.Settings
}

func (s settingsOutput) String() string {
	return formatSettings(s.Settings)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(intake.LocalDateTimeLayout)
}
