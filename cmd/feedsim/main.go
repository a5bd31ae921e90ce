// feedsim is a local stand-in for the admin event endpoint. It accepts
// WebSocket connections, checks the token query parameter, answers
// subscribe/request_metrics/mark_read/ping commands, and pushes fake
// notifications and metrics on fixed intervals.
// Usage: FEEDSIM_TOKEN=dev-token go run ./cmd/feedsim
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/callscope/adminfeed/internal/model"
	"github.com/callscope/adminfeed/internal/version"
)

type simConfig struct {
	Addr            string        `env:"FEEDSIM_ADDR" envDefault:":8090"`
	Path            string        `env:"FEEDSIM_PATH" envDefault:"/admin/events"`
	Token           string        `env:"FEEDSIM_TOKEN" envDefault:"dev-token"`
	NotifyInterval  time.Duration `env:"FEEDSIM_NOTIFY_INTERVAL" envDefault:"5s"`
	MetricsInterval time.Duration `env:"FEEDSIM_METRICS_INTERVAL" envDefault:"10s"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	cfg, err := env.ParseAs[simConfig]()
	if err != nil {
		logger.Error("failed to parse environment", "error", err)
		os.Exit(1)
	}

	logger.Info("starting feedsim",
		"version", version.Version,
		"addr", cfg.Addr,
		"path", cfg.Path,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	sim := &simulator{cfg: cfg, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Path, sim.handleWS)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("feedsim failed", "error", err)
		os.Exit(1)
	}

	logger.Info("feedsim stopped")
}

type simulator struct {
	cfg    simConfig
	logger *slog.Logger
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *simulator) handleWS(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("token") != s.cfg.Token {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "error", err)
		return
	}

	sess := &session{
		sim:    s,
		conn:   conn,
		logger: s.logger.With("remote", r.RemoteAddr),
	}
	sess.run()
}

// session is one connected admin client.
type session struct {
	sim    *simulator
	conn   *websocket.Conn
	logger *slog.Logger

	writeMu sync.Mutex

	mu         sync.Mutex
	categories []string
}

func (s *session) run() {
	defer s.conn.Close()

	s.logger.Info("client connected")

	done := make(chan struct{})
	go s.pushLoop(done)

	s.readLoop()
	close(done)

	s.logger.Info("client disconnected")
}

// readLoop handles client commands until the connection drops.
func (s *session) readLoop() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var env model.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.logger.Warn("malformed command dropped", "error", err)
			continue
		}

		switch env.Type {
		case model.TypePing:
			s.write(model.Envelope{Type: model.TypePong, Timestamp: time.Now().UTC()})

		case model.TypeSubscribe:
			var cmd model.SubscribeCommand
			if err := json.Unmarshal(data, &cmd); err != nil {
				s.logger.Warn("malformed subscribe dropped", "error", err)
				continue
			}
			s.mu.Lock()
			s.categories = cmd.Categories
			s.mu.Unlock()
			s.logger.Info("subscription updated", "categories", cmd.Categories)

		case model.TypeRequestMetrics:
			s.pushMetrics()

		case model.TypeMarkRead:
			var cmd model.MarkReadCommand
			if err := json.Unmarshal(data, &cmd); err != nil {
				s.logger.Warn("malformed mark_read dropped", "error", err)
				continue
			}
			s.logger.Info("notification marked read", "id", cmd.NotificationID)

		default:
			s.logger.Debug("ignoring command type", "type", env.Type)
		}
	}
}

// pushLoop emits fake notifications and metrics on fixed intervals.
func (s *session) pushLoop(done chan struct{}) {
	notifyTicker := time.NewTicker(s.sim.cfg.NotifyInterval)
	defer notifyTicker.Stop()
	metricsTicker := time.NewTicker(s.sim.cfg.MetricsInterval)
	defer metricsTicker.Stop()

	for {
		select {
		case <-done:
			return
		case <-notifyTicker.C:
			s.pushNotification()
		case <-metricsTicker.C:
			s.pushMetrics()
		}
	}
}

var (
	notifTypes      = []string{model.NotificationInfo, model.NotificationWarning, model.NotificationError, model.NotificationSuccess}
	notifPriorities = []string{model.PriorityLow, model.PriorityMedium, model.PriorityHigh}
	notifCategories = []string{"calls", "billing", "agents", "system"}
)

func (s *session) pushNotification() {
	category := notifCategories[rand.Intn(len(notifCategories))]

	s.mu.Lock()
	subscribed := len(s.categories) == 0
	for _, c := range s.categories {
		if c == category {
			subscribed = true
			break
		}
	}
	s.mu.Unlock()
	if !subscribed {
		return
	}

	n := model.Notification{
		ID:        uuid.NewString(),
		Type:      notifTypes[rand.Intn(len(notifTypes))],
		Title:     "Simulated event",
		Message:   "Synthetic " + category + " notification from feedsim",
		Timestamp: time.Now().UTC(),
		Priority:  notifPriorities[rand.Intn(len(notifPriorities))],
		Category:  category,
	}
	s.pushEnvelope(model.TypeNotification, n)
}

func (s *session) pushMetrics() {
	m := model.Metrics{
		ActiveUsers:  50 + rand.Intn(200),
		TotalCalls:   int64(10000 + rand.Intn(5000)),
		SystemLoad:   10 + rand.Float64()*80,
		ErrorRate:    rand.Float64() * 5,
		ResponseTime: 50 + rand.Float64()*300,
		Timestamp:    time.Now().UTC(),
	}
	s.pushEnvelope(model.TypeMetrics, m)
}

func (s *session) pushEnvelope(msgType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("marshal payload", "type", msgType, "error", err)
		return
	}
	s.write(model.Envelope{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

func (s *session) write(env model.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		s.logger.Error("marshal envelope", "error", err)
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Debug("write failed", "error", err)
	}
}
