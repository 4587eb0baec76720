package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/auxroom/server/internal/client"
	"github.com/auxroom/server/internal/domain"
	"github.com/auxroom/server/internal/player"
	roomsync "github.com/auxroom/server/internal/sync"
	"github.com/auxroom/server/pkg/ctxlogger"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	serverURL = configVar[string]{
		envKey:       "CLIENT_SERVER_URL",
		flagKey:      "server-url",
		defaultValue: "http://localhost:8080",
	}
	roomID = configVar[string]{
		envKey:       "CLIENT_ROOM_ID",
		flagKey:      "room-id",
		defaultValue: "",
	}
	roomName = configVar[string]{
		envKey:       "CLIENT_ROOM_NAME",
		flagKey:      "room-name",
		defaultValue: "",
	}
	username = configVar[string]{
		envKey:       "CLIENT_USERNAME",
		flagKey:      "username",
		defaultValue: "listener",
	}
	color = configVar[string]{
		envKey:       "CLIENT_COLOR",
		flagKey:      "color",
		defaultValue: "#7c3aed",
	}
	logLevel = configVar[string]{
		envKey:       "CLIENT_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
)

type clientConfig struct {
	ServerURL string
	RoomID    string
	RoomName  string
	Username  string
	Color     string
	LogLevel  string
}

func loadClientConfig() *clientConfig {
	pflag.String(serverURL.flagKey, serverURL.defaultValue, "Room server base URL")
	pflag.String(roomID.flagKey, roomID.defaultValue, "Room to join; leave empty to create one")
	pflag.String(roomName.flagKey, roomName.defaultValue, "Name for a newly created room")
	pflag.String(username.flagKey, username.defaultValue, "Display name")
	pflag.String(color.flagKey, color.defaultValue, "Display color")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(serverURL.flagKey, serverURL.envKey)
	viper.BindEnv(roomID.flagKey, roomID.envKey)
	viper.BindEnv(roomName.flagKey, roomName.envKey)
	viper.BindEnv(username.flagKey, username.envKey)
	viper.BindEnv(color.flagKey, color.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)

	return &clientConfig{
		ServerURL: viper.GetString(serverURL.flagKey),
		RoomID:    viper.GetString(roomID.flagKey),
		RoomName:  viper.GetString(roomName.flagKey),
		Username:  viper.GetString(username.flagKey),
		Color:     viper.GetString(color.flagKey),
		LogLevel:  viper.GetString(logLevel.flagKey),
	}
}

func run(ctx context.Context, cfg *clientConfig) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}
	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
	}
	logger := slog.New(&h)
	slog.SetDefault(logger)

	store := client.NewStore(client.StoreConfig{
		BaseURL: cfg.ServerURL,
		RoomID:  cfg.RoomID,
	})

	var user domain.User
	if cfg.RoomID == "" {
		name := cfg.RoomName
		if name == "" {
			name = cfg.Username + "'s room"
		}
		created, err := store.CreateRoom(ctx, name, cfg.Username, cfg.Color)
		if err != nil {
			return err
		}
		user = created.User
		logger.Info("room created", "room_id", created.Room.ID)
	} else {
		joined, err := store.JoinRoster(ctx, domain.User{
			Username: cfg.Username,
			Color:    cfg.Color,
		})
		if err != nil {
			return err
		}
		user = joined.User
		logger.Info("room joined", "room_id", cfg.RoomID, "user_id", user.ID)
	}

	channel, err := client.NewChannel(client.ChannelConfig{
		ServerURL: cfg.ServerURL,
		RoomID:    store.RoomID(),
		AuthToken: store.AuthToken(),
	}, logger)
	if err != nil {
		return err
	}

	coordinator := roomsync.NewCoordinator(store, channel, player.NewGenericAdapter(), user, logger)
	if err := coordinator.Start(ctx); err != nil {
		return err
	}

	logger.Info("sync coordinator running", "room_id", store.RoomID())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	coordinator.Stop(context.WithoutCancel(ctx))

	return nil
}

func main() {
	ctx := context.Background()

	// .env is optional; real deployments set the environment directly.
	godotenv.Load()

	cfg := loadClientConfig()

	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}
