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
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/mjhajdugaNext/messenger/internal/auth"
	"github.com/mjhajdugaNext/messenger/internal/config"
	"github.com/mjhajdugaNext/messenger/internal/db"
	"github.com/mjhajdugaNext/messenger/internal/keylock"
	clog "github.com/mjhajdugaNext/messenger/internal/log"
	"github.com/mjhajdugaNext/messenger/internal/mw"
	"github.com/mjhajdugaNext/messenger/internal/server"
	"github.com/mjhajdugaNext/messenger/internal/service"
	"github.com/mjhajdugaNext/messenger/internal/store"
	"github.com/mjhajdugaNext/messenger/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	clog.Init(cfg.Env)
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config validate")
	}

	gdb, err := db.Connect(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("db handle")
	}
	defer sqlDB.Close()

	users := store.NewUsers(gdb)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.SessionTTL, cfg.SessionGrace)
	locks := keylock.New()
	accounts := service.NewUserService(users, auth.Credentials{}, tokens)
	friends := service.NewFriendService(users, locks)
	msgs := service.NewMessageService(store.NewMessages(gdb))

	// Nothing is connected yet, so any active flag is left over from a
	// previous run.
	if n, err := accounts.ResetPresence(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("reset presence")
	} else if n > 0 {
		log.Info().Int64("users", n).Msg("cleared stale presence")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	usersHub, msgHub := ws.NewHub("users"), ws.NewHub("messages")
	go usersHub.Run(ctx)
	go msgHub.Run(ctx)

	eventLimiter := mw.NewRateLimiter(rate.Limit(cfg.WSEventsPerSecond), cfg.WSEventBurst, 2*time.Minute)
	defer eventLimiter.Stop()
	httpLimiter := mw.NewRateLimiter(rate.Every(time.Second/20), 40, 2*time.Minute)
	defer httpLimiter.Stop()

	gw := ws.NewGateway(tokens, accounts, locks, eventLimiter, cfg.Env, cfg.CORSOrigins)
	r := server.SetupRouter(server.Deps{
		Config:     cfg,
		Tokens:     tokens,
		Handler:    server.NewHandler(accounts, friends, msgs),
		Gateway:    gw,
		UsersNS:    ws.NewUsersNamespace(usersHub, friends),
		MessagesNS: ws.NewMessagesNamespace(msgHub, msgs),
		Limiter:    httpLimiter,
		Ready:      func() error { return sqlDB.PingContext(context.Background()) },
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Str("db", cfg.DatabaseDriver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		log.Error().Err(err).Msg("server run")
	}
	stop()

	// Hubs stop with ctx, which closes every live connection. Shutdown does
	// not track hijacked connections, so the gateway is drained separately
	// before the deferred database close.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	code := 0
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
		code = 1
	}
	if err := gw.Wait(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("gateway drain")
		code = 1
	}
	if code != 0 {
		cancel()
		_ = sqlDB.Close()
		os.Exit(code)
	}
	log.Info().Msg("server stopped")
}
