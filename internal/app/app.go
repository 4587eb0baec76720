package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/auxroom/server/internal/controller"
	roomRedis "github.com/auxroom/server/internal/repository/room/redis"
	"github.com/auxroom/server/internal/service/room"
	"github.com/auxroom/server/pkg/ctxlogger"
	"github.com/auxroom/server/pkg/redisclient"
)

type AppConfig struct {
	Secret            string  `json:"-"`
	Host              string  `json:"host"`
	Port              int     `json:"port"`
	LogLevel          string  `json:"log_level"`
	MembersLimit      int     `json:"members_limit"`
	PlaylistLimit     int     `json:"playlist_limit"`
	VoteSkipThreshold float64 `json:"vote_skip_threshold"`
	RedisHost         string  `json:"redis_host"`
	RedisPort         int     `json:"redis_port"`
	RedisPassword     string  `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.MembersLimit < 1 {
		return fmt.Errorf("members limit must be greater than 0")
	}
	if cfg.PlaylistLimit < 1 {
		return fmt.Errorf("playlist limit must be greater than 0")
	}
	if cfg.VoteSkipThreshold <= 0 || cfg.VoteSkipThreshold > 1 {
		return fmt.Errorf("vote skip threshold must be in (0, 1]")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		}),
	}
	logger := slog.New(&h)
	slog.SetDefault(logger)

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	roomRepo := roomRedis.NewRepo(rc, 24*time.Hour)
	roomService := room.NewService(roomRepo, &room.Config{
		Secret:            cfg.Secret,
		MembersLimit:      cfg.MembersLimit,
		PlaylistLimit:     cfg.PlaylistLimit,
		VoteSkipThreshold: cfg.VoteSkipThreshold,
	})
	controller := controller.NewController(roomService, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
