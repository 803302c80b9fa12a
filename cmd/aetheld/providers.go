package main

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Bam6561/AethelPlugin-sub005/internal/config"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/ability"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/damage"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/dice"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/effect"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/entity"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/equipment"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/status"
	"github.com/Bam6561/AethelPlugin-sub005/internal/gameserver"
	"github.com/Bam6561/AethelPlugin-sub005/internal/observability"
	"github.com/Bam6561/AethelPlugin-sub005/internal/scripting"
	"github.com/Bam6561/AethelPlugin-sub005/internal/storage/postgres"
)

// builtinAbilities are registered alongside the scripted ones.
var builtinAbilities = []ability.Ability{
	ability.Detonate{Type: status.Bleed, PerStack: 4},
	ability.Detonate{Type: status.Electrocute, PerStack: 3},
}

// daemon is the assembled combat core and the driver that ticks it.
type daemon struct {
	service *gameserver.Service
	driver  *effect.TickDriver
	logger  *zap.Logger
}

func newDaemon(svc *gameserver.Service, driver *effect.TickDriver, logger *zap.Logger) *daemon {
	return &daemon{service: svc, driver: driver, logger: logger}
}

func provideTracerProvider(ctx context.Context, cfg config.Config) (trace.TracerProvider, func(), error) {
	tp, shutdown, err := observability.NewTracerProvider(ctx, cfg.Tracing)
	if err != nil {
		return nil, nil, err
	}
	return tp, func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(flushCtx)
	}, nil
}

func provideSource(cfg config.Config, logger *zap.Logger) dice.Source {
	var src dice.Source
	if cfg.Engine.Seed != 0 {
		src = dice.NewSeededSource(cfg.Engine.Seed)
	} else {
		src = dice.NewCryptoSource()
	}
	return dice.NewLoggedSource(src, logger)
}

func provideItems(cfg config.Config, logger *zap.Logger) (*equipment.Registry, error) {
	start := time.Now()
	items, err := equipment.NewRegistryFromDir(cfg.Content.ItemsDir)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded item definitions",
		zap.Int("count", items.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return items, nil
}

func provideSink(logger *zap.Logger) damage.Sink {
	return damage.NewLoggingSink(logger)
}

func provideEngine(repo entity.Repository, sink damage.Sink, locator effect.Locator, logger *zap.Logger, cfg config.Config, tracer trace.Tracer) *effect.Engine {
	return effect.NewEngine(repo, sink, locator, logger, effect.Options{
		Workers:      cfg.Engine.Workers,
		SpreadRadius: cfg.Engine.SpreadRadius,
		Tracer:       tracer,
	})
}

func provideScripts(cfg config.Config, src dice.Source, logger *zap.Logger) (*scripting.Manager, func(), error) {
	mgr := scripting.NewManager(src, logger)
	if cfg.Content.AbilityScriptsDir != "" {
		if _, err := mgr.LoadDir(cfg.Content.AbilityScriptsDir, cfg.Content.ScriptInstructionLimit); err != nil {
			mgr.Close()
			return nil, nil, err
		}
	}
	return mgr, mgr.Close, nil
}

func provideAbilities(scripts *scripting.Manager) (*ability.Registry, error) {
	r := ability.NewRegistry()
	for _, a := range builtinAbilities {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	if err := ability.RegisterScripts(r, scripts); err != nil {
		return nil, err
	}
	return r, nil
}

// provideStore connects to PostgreSQL when persistence is enabled. A disabled
// database yields a nil store, which the service treats as no persistence.
func provideStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (gameserver.StateStore, func(), error) {
	if !cfg.Database.Enabled {
		return nil, func() {}, nil
	}
	start := time.Now()
	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(start)),
	)
	return postgres.NewStateRepository(db), db.Close, nil
}

func provideDriver(engine *effect.Engine, cfg config.Config, logger *zap.Logger) *effect.TickDriver {
	return effect.NewTickDriver(engine, cfg.Engine.TickInterval, logger)
}
