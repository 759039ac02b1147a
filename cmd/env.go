package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/papapumpkin/mapforge/internal/builtin"
	"github.com/papapumpkin/mapforge/internal/config"
	"github.com/papapumpkin/mapforge/internal/ledger"
	"github.com/papapumpkin/mapforge/internal/migration"
	"github.com/papapumpkin/mapforge/internal/recipe"
	"github.com/papapumpkin/mapforge/internal/session"
	"github.com/papapumpkin/mapforge/internal/store"
	"github.com/papapumpkin/mapforge/internal/telemetry"
	"github.com/papapumpkin/mapforge/internal/ui"
)

// env holds everything a command needs to work on one project.
type env struct {
	home    string
	cfg     config.Config
	printer *ui.Printer
	logger  zerolog.Logger
	store   *store.FS
	svc     *migration.Service
	session *session.Session
	ledger  *ledger.Ledger
	events  *telemetry.Emitter
}

// newLogger returns a console logger on stderr when verbose, and a no-op
// logger otherwise.
func newLogger(verbose bool) zerolog.Logger {
	if !verbose {
		return zerolog.Nop()
	}
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(consoleWriter).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}

// newEnv wires the store, registry, loaders, service and session for the
// project at home. The ledger and telemetry are opened when configured.
// Callers must call close.
func newEnv(ctx context.Context, home string, cfg config.Config) (*env, error) {
	e := &env{
		home:    home,
		cfg:     cfg,
		printer: ui.New(),
		logger:  newLogger(cfg.Verbose),
		store:   store.NewOS(),
	}

	reg, err := migration.NewRegistry()
	if err != nil {
		return nil, err
	}
	if err := builtin.Register(reg); err != nil {
		return nil, err
	}
	loader := recipe.Chain{recipe.NewTable(), recipe.NewFiles(e.store.Fs())}

	e.svc = migration.NewService(e.store, reg,
		migration.WithLoader(loader),
		migration.WithLogger(e.logger),
		migration.WithObserver(e.printer.MigrationApplied),
	)

	opts := []session.Option{
		session.WithLogger(e.logger),
		session.WithIndent(cfg.Indent),
	}
	if !cfg.NoLedger {
		l, err := ledger.Open(ctx, cfg.LedgerFile(home))
		if err != nil {
			return nil, err
		}
		e.ledger = l
		opts = append(opts, session.WithRecorder(l))
	}
	if path := cfg.TelemetryFile(home); path != "" {
		em, err := telemetry.NewEmitter(path)
		if err != nil {
			e.close()
			return nil, err
		}
		e.events = em
		opts = append(opts, session.WithEmitter(em))
	}
	e.session = session.New(e.svc, e.store, opts...)
	return e, nil
}

// openProject builds an env for home and opens the project in its session.
// An empty home falls back to the configured project.
func openProject(ctx context.Context, home string) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if home == "" {
		home = cfg.Project
	}
	e, err := newEnv(ctx, home, cfg)
	if err != nil {
		return nil, err
	}
	if err := e.session.OpenProject(ctx, home); err != nil {
		e.close()
		return nil, err
	}
	return e, nil
}

func (e *env) close() {
	var errs []error
	if e.ledger != nil {
		errs = append(errs, e.ledger.Close())
	}
	errs = append(errs, e.events.Close())
	if err := errors.Join(errs...); err != nil {
		e.logger.Warn().Err(err).Msg("closing project resources")
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// argAt returns args[i], or "" when there are fewer arguments.
func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
