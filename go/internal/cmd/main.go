package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kpatel93/auctionday/go/internal/broadcast"
	"github.com/kpatel93/auctionday/go/internal/broadcast/gateway"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	config, err := loadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()

	var repos repositories
	switch config.Storage.Mode {
	case "postgres":
		pool, err := setupDatabase(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to set up database")
		}
		defer pool.Close()
		repos = postgresRepositories(pool)
	case "memory":
		log.Warn().Msg("running with in-memory storage; all data is lost on shutdown")
		repos = memoryRepositories(clock)
	}

	var publisher broadcast.Publisher
	switch config.Broadcast.Mode {
	case "nats":
		jsConfig := broadcast.DefaultJetStreamConfig()
		jsConfig.URL = config.Broadcast.NATSURL
		jsPublisher, err := broadcast.NewJetStreamPublisher(jsConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect publisher to NATS")
		}
		defer jsPublisher.Close()
		publisher = jsPublisher
	case "log":
		publisher = broadcast.NewLogPublisher()
	}

	services := setupServices(repos, publisher, clock)
	go runRepairSweep(ctx, services, time.Duration(config.Sweep.IntervalMinutes)*time.Minute)

	// WebSocket fan-out
	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	go cm.Start(ctx)

	if config.Broadcast.Mode == "nats" {
		consumerConfig := gateway.DefaultJetStreamConsumerConfig()
		consumerConfig.URL = config.Broadcast.NATSURL
		consumer, err := gateway.NewEventConsumer(cm, consumerConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event consumer")
		}
		defer consumer.Stop()
		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("event consumer stopped")
			}
		}()
	}

	wsHandler := gateway.NewWebSocketHandler(cm)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.HandleAuctionConnection)
	mux.HandleFunc("/ws/stats", wsHandler.HandleStats)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:    config.Server.Addr,
		Handler: mux,
	}

	go func() {
		log.Info().Str("addr", config.Server.Addr).Msg("gateway listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
