package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/bot"
	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/config"
	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/database"
	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/geocoding"
	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/observability"
	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/real_estate_api"
	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := observability.Init(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		journal bot.SearchJournal
		db      *database.DB
	)
	if cfg.SearchDBPath != "" {
		db, err = database.NewDB(cfg.SearchDBPath)
		if err != nil {
			log.Fatal(err)
		}

		if err = db.CreateTables(); err != nil {
			log.Fatal(err)
		}
		journal = db
		logger.Info("search journal enabled", slog.String("path", cfg.SearchDBPath))
	}

	api, err := bot.Connect(ctx, cfg.BotToken, cfg.StartupRetries, cfg.StartupRetryDelay)
	if err != nil {
		log.Fatalf("Failed to start bot: %v", err)
	}
	// Set this to true to log all interactions with telegram servers
	api.Debug = cfg.TelegramDebug
	logger.Info("authorised on account", slog.String("account", api.Self.UserName))

	geocoder := geocoding.NewNominatimClient(cfg.GeocoderURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout)
	messenger := bot.NewTelegramMessenger(api)
	router := bot.NewRouter(
		messenger,
		session.NewMemoryStore(),
		geocoding.NewResolver(geocoder, cfg.City),
		real_estate_api.NewImmoScoutBuilder(cfg.City),
		journal,
		cfg.VersionedWebAppURL(),
	)

	tg := bot.NewBot(api, router, messenger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return tg.Run(ctx)
	})
	// shutdown watcher
	g.Go(func() error {
		<-ctx.Done()
		tg.Stop()
		if db != nil {
			if err := db.Close(); err != nil {
				return fmt.Errorf("close search journal: %w", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("bot stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("bot stopped")
}
