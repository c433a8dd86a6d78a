// Package app composes oneway's components with fx.
package app

import (
	"context"
	"fmt"

	"github.com/sudomakes/oneway/internal/bus"
	"github.com/sudomakes/oneway/internal/config"
	"github.com/sudomakes/oneway/internal/logging"
	"github.com/sudomakes/oneway/internal/paths"
	"github.com/sudomakes/oneway/internal/query"
	"github.com/sudomakes/oneway/internal/send"
	"github.com/sudomakes/oneway/internal/status"
	"github.com/sudomakes/oneway/internal/store"
	intsync "github.com/sudomakes/oneway/internal/sync"
	"github.com/sudomakes/oneway/internal/wa"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds process-level options passed to the fx modules.
type Params struct {
	ConfigPath string // explicit config file; empty = search paths.ConfigCandidates
	Console    bool   // also log warnings to stderr
}

// Core returns the module every command needs: config, logging, the bus, the
// archive and the query layer. It never touches the WhatsApp session.
func Core(p Params) fx.Option {
	return fx.Module("core",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStore,
			provideQuery,
		),
		fx.Invoke(registerStoreLifecycle),
	)
}

// Session returns the module for commands that talk to WhatsApp: the
// adapter, the history buffer, the sync engine and the sender. Starting it
// connects a paired session.
func Session() fx.Option {
	return fx.Module("session",
		fx.Provide(
			provideStateMachine,
			provideHistory,
			provideAdapter,
			provideSource,
			provideEngine,
			provideSyncer,
			provideSender,
		),
		fx.Invoke(registerSessionLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	candidates := paths.ConfigCandidates()
	if p.ConfigPath != "" {
		candidates = []string{p.ConfigPath}
	}
	cfg, _, err := config.Load(candidates)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(p Params) (*zap.Logger, error) {
	if err := paths.EnsureDir(); err != nil {
		return nil, err
	}
	return logging.New(paths.LogPath(), p.Console)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStore(logger *zap.Logger) (*store.DB, error) {
	dbPath := paths.DBPath()
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideQuery(db *store.DB, cfg *config.Config) *query.Service {
	return query.NewService(db, cfg.Search.Limit)
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideHistory(cfg *config.Config) *wa.History {
	return wa.NewHistory(cfg.Sync.PageSize)
}

func provideAdapter(b *bus.Bus, m *status.Machine, logger *zap.Logger) (*wa.Adapter, error) {
	return wa.NewAdapter(context.Background(), paths.AuthDBPath(), b, m, logger.Named("wa"))
}

func provideSource(adapter *wa.Adapter, history *wa.History, cfg *config.Config, logger *zap.Logger) *wa.Source {
	return wa.NewSource(adapter, history, wa.SourceOptions{
		FetchRate:   cfg.Sync.FetchRate,
		SettleQuiet: settleQuiet,
		SettleMax:   settleMax,
	}, logger.Named("source"))
}

func provideEngine(db *store.DB, src *wa.Source, cfg *config.Config, logger *zap.Logger) *intsync.Engine {
	return intsync.NewEngine(db, src, logger.Named("sync"), intsync.Options{
		WindowDays:   cfg.Sync.WindowDays,
		PageSize:     cfg.Sync.PageSize,
		FetchTimeout: fetchTimeout,
	})
}

func provideSyncer(engine *intsync.Engine, logger *zap.Logger) *Syncer {
	return NewSyncer(engine, paths.LockDir(), logger)
}

func provideSender(q *query.Service, adapter *wa.Adapter, cfg *config.Config, b *bus.Bus, logger *zap.Logger) *send.Sender {
	return send.NewSender(q, adapter, adapter, cfg.MessageSuffix, b, logger.Named("send"))
}

func registerStoreLifecycle(lc fx.Lifecycle, db *store.DB, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			_ = logger.Sync()
			return nil
		},
	})
}

func registerSessionLifecycle(lc fx.Lifecycle, adapter *wa.Adapter, history *wa.History, machine *status.Machine, b *bus.Bus, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			handler := wa.NewEventHandler(history, machine, b, adapter, logger.Named("events"))
			adapter.RegisterEventHandler(handler.Handle)

			if !adapter.IsLoggedIn() {
				logger.Info("no credentials found, pairing required")
				_ = machine.Transition(status.AuthRequired)
				return nil
			}
			go func() {
				if err := adapter.Connect(); err != nil {
					logger.Error("auto-connect failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			adapter.Disconnect()
			logger.Info("session stopped")
			return nil
		},
	})
}
