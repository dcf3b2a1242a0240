package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/petakom/petakom/internal/api"
	"github.com/petakom/petakom/internal/config"
	"github.com/petakom/petakom/internal/conversation"
	"github.com/petakom/petakom/internal/credential"
	"github.com/petakom/petakom/internal/gemini"
	"github.com/petakom/petakom/internal/notify"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("petakom starting", "port", cfg.Port)

	// Credential store: persisted key wins, env var seeds a fresh install.
	creds := credential.NewStore(cfg.CredentialFile)
	if err := creds.Load(); err != nil {
		slog.Error("failed to load credential", "error", err)
		os.Exit(1)
	}
	creds.Seed(cfg.GeminiAPIKey)
	if _, ok := creds.Get(); ok {
		slog.Info("gemini credential configured")
	} else {
		slog.Warn("no gemini credential yet — conversations will be rejected until one is set")
	}

	llm := gemini.NewClient(cfg.GeminiModel)
	slog.Info("gemini client ready", "model", cfg.GeminiModel)

	// Notifications always land on the in-memory feed; NATS fan-out is
	// optional — petakom works without it, just no event stream.
	feed := notify.NewFeed(200)
	var notifier notify.Notifier = feed
	if cfg.NatsURL != "" {
		pub, err := notify.NewPublisher(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer pub.Close()
		notifier = notify.Multi(feed, pub)
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("nats not configured — running without event fan-out")
	}

	engine := conversation.New(llm, creds, notifier, slog.Default())

	srv := api.NewServer(cfg.Port, engine, llm, creds, feed, notifier, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("petakom ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	slog.Info("petakom stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
