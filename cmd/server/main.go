// Command server runs the Spellcaster match orchestrator.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/bots"
	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/cache"
	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/config"
	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/database"
	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/game"
	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/server"
	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/visualizer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("configuration error")
	}
	cfg.ApplyLogLevel()
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Connect(ctx, cfg.PostgresURL)
	if err != nil {
		log.WithError(err).Fatal("postgres connection failed")
	}
	defer store.Close()
	if store != nil {
		if err := store.EnsureSchema(ctx); err != nil {
			log.WithError(err).Fatal("schema setup failed")
		}
	}

	recorder, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("redis connection failed")
	}
	defer recorder.Close()

	opts := game.Options{
		Bots:         bots.Resolve,
		TurnDeadline: cfg.TurnDeadline,
		MaxTurns:     cfg.MaxTurns,
	}
	if bridge := visualizer.New(cfg.VisualizerCmd, cfg.VisualizerArgs...); bridge != nil {
		opts.Visualizer = bridge
	}
	if store != nil {
		opts.Players = store
		opts.Results = store
	}
	if recorder != nil {
		opts.Recorder = recorder
	}

	manager := game.NewManager(game.NewDuelFactory(), opts)
	srv := server.New(manager)
	if err := srv.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		log.WithError(err).Fatal("http server failed")
	}
	log.Info("shutdown complete")
}
