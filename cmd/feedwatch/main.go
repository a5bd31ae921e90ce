// feedwatch connects to the admin event endpoint and streams notifications,
// metrics, and user activity to the console.
// Usage: go run ./cmd/feedwatch --config configs/feedwatch.example.yaml
//
// Credentials come from the environment:
//
//	ADMINFEED_TOKEN      - Bearer token for the admin endpoint
//	ADMINFEED_TOKEN_FILE - Alternatively, a file containing the token
//	ADMINFEED_ROLE       - Role of the operator (must be "admin")
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/callscope/adminfeed/internal/auth"
	"github.com/callscope/adminfeed/internal/config"
	"github.com/callscope/adminfeed/internal/exporter"
	"github.com/callscope/adminfeed/internal/feed"
	"github.com/callscope/adminfeed/internal/model"
	"github.com/callscope/adminfeed/internal/poller"
	"github.com/callscope/adminfeed/internal/store"
	"github.com/callscope/adminfeed/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/feedwatch.example.yaml", "path to config file")
	tokenFlag := flag.String("token", "", "bearer token (overrides environment)")
	categories := flag.String("categories", "", "comma-separated notification categories to subscribe")
	outPath := flag.String("out", "", "notification archive file (overrides config)")
	verbose := flag.Bool("verbose", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting feedwatch",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// The admin role gate lives here, not in the feed client: the client
	// is handed an opaque token and never inspects roles itself.
	creds, err := auth.FromEnv()
	if *tokenFlag != "" {
		creds = &auth.Credentials{Role: auth.RoleAdmin, Token: *tokenFlag}
		err = nil
	}
	if err != nil {
		logger.Error("failed to load credentials", "error", err)
		os.Exit(1)
	}
	if !creds.IsAdmin() {
		logger.Error("refusing to connect: admin role required", "role", creds.Role)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	client := feed.New(feed.Config{
		URL:                  cfg.Endpoint.URL,
		HeartbeatInterval:    cfg.Feed.HeartbeatInterval,
		ReconnectBaseDelay:   cfg.Feed.ReconnectBaseDelay,
		ReconnectMaxDelay:    cfg.Feed.ReconnectMaxDelay,
		MaxReconnectAttempts: cfg.Feed.MaxReconnectAttempts,
		DialTimeout:          cfg.Endpoint.DialTimeout,
		WriteTimeout:         cfg.Endpoint.WriteTimeout,
		BufferSize:           cfg.Feed.MessageBufferSize,
	}, logger)

	st := store.New(store.Config{
		NotificationCap: cfg.Store.NotificationCap,
	}, client, logger)
	defer st.Close()

	// Console output handlers
	client.OnNotification(func(n model.Notification) {
		logger.Info("notification",
			"id", n.ID,
			"type", n.Type,
			"priority", n.Priority,
			"category", n.Category,
			"title", n.Title,
			"message", n.Message,
		)
	})
	client.OnMetrics(func(m model.Metrics) {
		logger.Info("metrics",
			"active_users", m.ActiveUsers,
			"total_calls", m.TotalCalls,
			"system_load", m.SystemLoad,
			"error_rate", m.ErrorRate,
			"response_time_ms", m.ResponseTime,
		)
	})
	client.OnUserActivity(func(a model.UserActivity) {
		logger.Info("user activity", "user_id", a.UserID, "action", a.Action)
	})
	client.OnError(func(err error) {
		logger.Warn("feed error", "error", err)
	})

	// Retry exhaustion is terminal: surface it and exit so the operator
	// restarts deliberately instead of silently losing events.
	exhausted := make(chan struct{})
	client.OnMaxReconnectAttempts(func(attempts int) {
		logger.Error("giving up after max reconnect attempts", "attempts", attempts)
		close(exhausted)
	})

	// Optional notification archive
	archivePath := cfg.Exporter.Path
	if *outPath != "" {
		archivePath = *outPath
	}
	if archivePath != "" {
		archiveCh := make(chan model.Notification, 100)
		exp, err := exporter.New(exporter.Config{
			Path:          archivePath,
			BatchSize:     cfg.Exporter.BatchSize,
			FlushInterval: cfg.Exporter.FlushInterval,
		}, archiveCh, logger)
		if err != nil {
			logger.Error("failed to open notification archive", "error", err)
			os.Exit(1)
		}
		client.OnNotification(func(n model.Notification) {
			select {
			case archiveCh <- n:
			default:
				logger.Warn("archive buffer full, dropping notification", "id", n.ID)
			}
		})
		exp.Start(ctx)
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			exp.Stop(stopCtx)
		}()
	}

	if err := client.Connect(ctx, creds.Token); err != nil {
		logger.Error("failed to connect", "error", err)
		os.Exit(1)
	}

	subs := cfg.Subscriptions
	if *categories != "" {
		subs = strings.Split(*categories, ",")
	}
	if len(subs) > 0 {
		client.SubscribeToNotifications(subs)
		logger.Info("subscribed", "categories", subs)
	}

	if cfg.Poller.Enabled {
		p := poller.New(poller.Config{Interval: cfg.Poller.Interval}, client, logger)
		p.Start(ctx)
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			p.Stop(stopCtx)
		}()
	}

	logger.Info("feedwatch running", "instance_id", cfg.Instance.ID, "endpoint", cfg.Endpoint.URL)

	select {
	case <-ctx.Done():
	case <-exhausted:
		stats := client.Stats()
		logger.Info("feed stats",
			"received", stats.MessagesReceived,
			"dispatched", stats.MessagesDispatched,
			"parse_errors", stats.ParseErrors,
			"reconnects", stats.Reconnects,
		)
		os.Exit(1)
	}

	stats := client.Stats()
	logger.Info("shutting down",
		"received", stats.MessagesReceived,
		"dispatched", stats.MessagesDispatched,
		"parse_errors", stats.ParseErrors,
		"reconnects", stats.Reconnects,
		"unread", st.UnreadCount(),
	)
}
