package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"opslink/internal/auth"
	"opslink/internal/config"
	"opslink/internal/database"
	"opslink/internal/handlers"
	"opslink/internal/middleware"
	"opslink/internal/moderation"
	"opslink/internal/notify"
	"opslink/internal/oauth"
	"opslink/internal/tokencache"
	"opslink/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
)

const cacheSweepInterval = time.Minute

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})))

	db, err := database.NewMongoDB(cfg.Database.URI, cfg.Database.Name)
	if err != nil {
		slog.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Close(ctx); err != nil {
			slog.Error("failed to close MongoDB connection", "error", err)
		}
	}()

	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := db.EnsureIndexes(ctx); err != nil {
			slog.Error("failed to ensure indexes", "error", err)
			os.Exit(1)
		}
	}

	webhook, err := notify.NewDiscordWebhook(cfg.Notify.DiscordWebhookURL)
	if err != nil {
		slog.Error("invalid Discord webhook", "error", err)
		os.Exit(1)
	}

	system := actor.NewActorSystem()
	var events moderation.Events
	if webhook != nil {
		events = notify.NewDispatcher(system, webhook)
	} else {
		slog.Warn("DISCORD_WEBHOOK not set, listing notifications disabled")
	}

	mailer := notify.NewMailer(cfg.Notify.ResendAPIKey, cfg.Notify.EmailFrom)
	cache := tokencache.New(cacheSweepInterval)
	defer cache.Close()

	authenticator := middleware.NewAuthenticator(cfg.Auth.JWTSecret, db)
	authService := auth.NewService(db, mailer, authenticator, cache, cfg.Auth.PublicBaseURL)
	moderationService := moderation.NewService(db, db, events)
	oauthService := oauth.NewService(cfg.OAuth, db, cache)
	metrics := utils.NewMetricsCollector()

	server := handlers.NewServer(db, authService, authenticator, moderationService, oauthService, metrics, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	slog.Info("starting server", "addr", addr, "db", cfg.Database.Name)
	if err := http.ListenAndServe(addr, server.Routes()); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
