// Package main provides the gridkeeper binary: a Discord bot that runs
// reaction-controlled grid survival games.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ryebridge/gridkeeper/internal/achievements"
	"github.com/ryebridge/gridkeeper/internal/bot"
	"github.com/ryebridge/gridkeeper/internal/config"
	"github.com/ryebridge/gridkeeper/internal/game/engine"
	gamesession "github.com/ryebridge/gridkeeper/internal/game/session"
	"github.com/ryebridge/gridkeeper/internal/guildconfig"
	"github.com/ryebridge/gridkeeper/internal/observability"
	"github.com/ryebridge/gridkeeper/internal/score"
	"github.com/ryebridge/gridkeeper/internal/server"
	"github.com/ryebridge/gridkeeper/internal/shop"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	// Pick up GRIDKEEPER_* variables from a local .env during development.
	// A missing file is fine.
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer observability.Flush(logger)

	// Level progression table.
	levels := engine.DefaultLevelTable()
	if cfg.Content.LevelsPath != "" {
		levels, err = engine.LoadLevelTable(cfg.Content.LevelsPath)
		if err != nil {
			logger.Fatal("loading level table", zap.Error(err))
		}
		logger.Info("level table loaded",
			zap.String("path", cfg.Content.LevelsPath),
			zap.Int("rows", len(levels.Rows)),
		)
	}

	// Achievement set.
	achievementSet := achievements.Builtin()
	if cfg.Content.AchievementsPath != "" {
		achievementSet, err = achievements.LoadFile(cfg.Content.AchievementsPath)
		if err != nil {
			logger.Fatal("loading achievements", zap.Error(err))
		}
	}
	registry, err := achievements.NewRegistry(achievementSet)
	if err != nil {
		logger.Fatal("building achievement registry", zap.Error(err))
	}
	logger.Info("achievements registered", zap.Int("count", len(registry.All())))

	// Persistence stores.
	configs, err := guildconfig.NewStore(cfg.Data.ConfigsDir)
	if err != nil {
		logger.Fatal("opening guild config store", zap.Error(err))
	}
	scores, err := score.NewStore(cfg.Data.ScoresDir)
	if err != nil {
		logger.Fatal("opening score store", zap.Error(err))
	}
	inventories, err := shop.NewStore(cfg.Data.InventoriesDir)
	if err != nil {
		logger.Fatal("opening inventory store", zap.Error(err))
	}

	sessions := gamesession.NewManager()

	discordBot, err := bot.New(logger, cfg.Discord, configs, scores, inventories, sessions, levels, registry)
	if err != nil {
		logger.Fatal("creating bot", zap.Error(err))
	}

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("discord", discordBot)

	logger.Info("gridkeeper initialized",
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("bot error", zap.Error(err))
	}
}
