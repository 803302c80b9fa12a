//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/Bam6561/AethelPlugin-sub005/internal/config"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/combat"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/effect"
	"github.com/Bam6561/AethelPlugin-sub005/internal/game/entity"
	"github.com/Bam6561/AethelPlugin-sub005/internal/gameserver"
	"github.com/Bam6561/AethelPlugin-sub005/internal/observability"
)

var providerSet = wire.NewSet(
	entity.NewRegistry,
	wire.Bind(new(entity.Repository), new(*entity.Registry)),
	gameserver.NewPositions,
	wire.Bind(new(effect.Locator), new(*gameserver.Positions)),
	provideTracerProvider,
	observability.Tracer,
	provideSource,
	provideItems,
	provideSink,
	provideEngine,
	combat.NewResolver,
	provideScripts,
	provideAbilities,
	provideStore,
	gameserver.NewService,
	provideDriver,
	newDaemon,
)

func initializeDaemon(ctx context.Context, cfg config.Config, logger *zap.Logger) (*daemon, func(), error) {
	wire.Build(providerSet)
	return nil, nil, nil
}
