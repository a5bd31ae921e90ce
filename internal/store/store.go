package store

import (
	"log/slog"
	"sync"

	"github.com/callscope/adminfeed/internal/feed"
	"github.com/callscope/adminfeed/internal/model"
)

// FeedClient is the slice of the feed client the store consumes.
type FeedClient interface {
	OnConnected(func()) (remove func())
	OnDisconnected(func(reason string)) (remove func())
	OnError(func(err error)) (remove func())
	OnNotification(func(model.Notification)) (remove func())
	OnMetrics(func(model.Metrics)) (remove func())
	OnUserActivity(func(model.UserActivity)) (remove func())
	OnMaxReconnectAttempts(func(attempts int)) (remove func())
	State() feed.State
	SubscribeToNotifications(categories []string)
	RequestMetrics()
	MarkNotificationRead(id string)
	Disconnect()
}

// DefaultNotificationCap bounds the in-memory notification list.
const DefaultNotificationCap = 100

// Config holds store configuration.
type Config struct {
	NotificationCap int // Max notifications kept (default: 100)
}

// Store derives dashboard state from feed events.
type Store struct {
	cfg    Config
	client FeedClient
	logger *slog.Logger

	notifications *ringBuffer

	mu         sync.RWMutex
	metrics    model.Metrics
	hasMetrics bool
	lastErr    error
	exhausted  bool

	removers []func()
}

// New creates a store and attaches it to the feed client's events.
func New(cfg Config, client FeedClient, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.NotificationCap < 1 {
		cfg.NotificationCap = DefaultNotificationCap
	}

	s := &Store{
		cfg:           cfg,
		client:        client,
		logger:        logger,
		notifications: newRingBuffer(cfg.NotificationCap),
	}

	s.removers = []func(){
		client.OnConnected(s.handleConnected),
		client.OnError(s.handleError),
		client.OnNotification(s.handleNotification),
		client.OnMetrics(s.handleMetrics),
		client.OnMaxReconnectAttempts(s.handleExhausted),
	}

	return s
}

// Close detaches from the feed client and disconnects it.
func (s *Store) Close() {
	for _, remove := range s.removers {
		remove()
	}
	s.removers = nil
	s.client.Disconnect()
}

// -----------------------------------------------------------------------------
// Event handlers
// -----------------------------------------------------------------------------

func (s *Store) handleConnected() {
	s.mu.Lock()
	s.lastErr = nil
	s.exhausted = false
	s.mu.Unlock()
}

func (s *Store) handleError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *Store) handleNotification(n model.Notification) {
	s.notifications.Push(n)
}

func (s *Store) handleMetrics(m model.Metrics) {
	s.mu.Lock()
	s.metrics = m
	s.hasMetrics = true
	s.mu.Unlock()
}

func (s *Store) handleExhausted(attempts int) {
	s.mu.Lock()
	s.exhausted = true
	s.mu.Unlock()
	s.logger.Warn("feed gave up reconnecting", "attempts", attempts)
}

// -----------------------------------------------------------------------------
// Observable state
// -----------------------------------------------------------------------------

// ConnectionState reports the feed client's current state.
func (s *Store) ConnectionState() feed.State {
	return s.client.State()
}

// Notifications returns the buffered notifications, newest first.
func (s *Store) Notifications() []model.Notification {
	return s.notifications.Items()
}

// UnreadCount returns the number of unread notifications.
func (s *Store) UnreadCount() int {
	return s.notifications.UnreadCount()
}

// Metrics returns the latest snapshot. ok is false until the first push.
func (s *Store) Metrics() (m model.Metrics, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metrics, s.hasMetrics
}

// LastError returns the most recent transport error, cleared on reconnect.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// ReconnectExhausted reports whether the feed hit its retry budget and is
// waiting for a manual Connect.
func (s *Store) ReconnectExhausted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exhausted
}

// -----------------------------------------------------------------------------
// Actions
// -----------------------------------------------------------------------------

// MarkRead flips the local copy immediately and tells the server best-effort.
func (s *Store) MarkRead(id string) {
	if !s.notifications.MarkRead(id) {
		s.logger.Debug("mark read: notification not buffered", "id", id)
	}
	s.client.MarkNotificationRead(id)
}

// ClearNotifications empties the local buffer.
func (s *Store) ClearNotifications() {
	s.notifications.Clear()
}

// Subscribe forwards the category set to the feed client.
func (s *Store) Subscribe(categories []string) {
	s.client.SubscribeToNotifications(categories)
}

// RequestMetrics asks for a fresh snapshot.
func (s *Store) RequestMetrics() {
	s.client.RequestMetrics()
}
