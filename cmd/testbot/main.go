// cmd/testbot/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keshon/easycommands/internal/config"
	"github.com/keshon/easycommands/pkg/defaults"
	"github.com/keshon/easycommands/pkg/easycmd"
	"github.com/keshon/easycommands/pkg/executor"
	"github.com/keshon/easycommands/pkg/logging"
	"github.com/keshon/easycommands/pkg/middleware"
	"github.com/keshon/easycommands/pkg/syncstate"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "testbot:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	cfgLog := logging.For(log, logging.Config)
	startLog := logging.For(log, logging.Startup)

	intents, err := easycmd.ParseIntents(cfg.Intents)
	if err != nil {
		return err
	}
	enabled, err := easycmd.ParseCacheFlags(cfg.CacheEnable)
	if err != nil {
		return err
	}
	disabled, err := easycmd.ParseCacheFlags(cfg.CacheDisable)
	if err != nil {
		return err
	}

	state := syncstate.NewMemory()
	if cfg.SyncStatePath != "" {
		if state, err = syncstate.Open(syncstate.Config{
			FilePath:    cfg.SyncStatePath,
			BackupCount: 3,
			Logger:      cfgLog,
		}); err != nil {
			return err
		}
	}

	cfgLog.Info().
		Str("prefix", cfg.CommandPrefix()).
		Str("guild", cfg.GuildID).
		Bool("await_sync", cfg.AwaitSync).
		Msg("Configuration loaded")

	bot, err := easycmd.New(cfg.DiscordToken, easycmd.Options{
		Prefix:    cfg.CommandPrefix(),
		GuildID:   cfg.GuildID,
		AwaitSync: cfg.AwaitSync,
		SyncState: state,
		Logger:    &log,
	})
	if err != nil {
		return err
	}

	guildLog := logging.For(log, logging.Listeners)
	bot.RegisterListeners(func(_ *discordgo.Session, g *discordgo.GuildCreate) {
		guildLog.Info().Str("guild", g.ID).Msgf("Available in guild %s", g.Name)
	}).
		AddExecutor(
			defaults.NewHelp(bot.Registry(), cfg.CommandPrefix()),
			executor.Apply(defaults.NewPing("p", "pong"),
				middleware.GuildOnly(),
				middleware.Cooldown(5*time.Second, 2),
				middleware.CommandLogger(log),
			),
		).
		AddGatewayIntents(intents...).
		AddEnabledCacheFlags(enabled...).
		AddDisabledCacheFlags(disabled...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := bot.Build(ctx)
	if err != nil {
		return err
	}
	defer closeBot(bot, startLog)

	if err := s.UpdateGameStatus(0, cfg.Activity); err != nil {
		startLog.Warn().Err(err).Msg("Failed to set activity")
	}

	<-ctx.Done()
	startLog.Info().Msg("Shutdown signal received, cleaning up")
	return nil
}

func closeBot(bot *easycmd.Bot, log zerolog.Logger) {
	if err := bot.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close session")
	}
}
