package feed

import (
	"log/slog"
	"sync"

	"github.com/callscope/adminfeed/internal/model"
)

// dispatcher fans events out to typed handler sets. Registration returns a
// remove function, so callers detach handlers without string-keyed lookup.
// Handlers run synchronously on the read loop goroutine so events are
// observed in transport delivery order.
type dispatcher struct {
	logger *slog.Logger

	mu     sync.RWMutex
	nextID int

	connected    map[int]func()
	disconnected map[int]func(reason string)
	errs         map[int]func(err error)
	notification map[int]func(model.Notification)
	metrics      map[int]func(model.Metrics)
	activity     map[int]func(model.UserActivity)
	maxAttempts  map[int]func(attempts int)
}

func newDispatcher(logger *slog.Logger) *dispatcher {
	return &dispatcher{
		logger:       logger,
		connected:    make(map[int]func()),
		disconnected: make(map[int]func(string)),
		errs:         make(map[int]func(error)),
		notification: make(map[int]func(model.Notification)),
		metrics:      make(map[int]func(model.Metrics)),
		activity:     make(map[int]func(model.UserActivity)),
		maxAttempts:  make(map[int]func(int)),
	}
}

func (d *dispatcher) add(register func(id int)) (remove func()) {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	register(id)
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.connected, id)
		delete(d.disconnected, id)
		delete(d.errs, id)
		delete(d.notification, id)
		delete(d.metrics, id)
		delete(d.activity, id)
		delete(d.maxAttempts, id)
		d.mu.Unlock()
	}
}

// invoke guards a handler call so a panicking subscriber cannot take down
// the read loop.
func (d *dispatcher) invoke(event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked", "event", event, "panic", r)
		}
	}()
	fn()
}

func (d *dispatcher) emitConnected() {
	d.mu.RLock()
	handlers := make([]func(), 0, len(d.connected))
	for _, h := range d.connected {
		handlers = append(handlers, h)
	}
	d.mu.RUnlock()
	for _, h := range handlers {
		d.invoke("connected", h)
	}
}

func (d *dispatcher) emitDisconnected(reason string) {
	d.mu.RLock()
	handlers := make([]func(string), 0, len(d.disconnected))
	for _, h := range d.disconnected {
		handlers = append(handlers, h)
	}
	d.mu.RUnlock()
	for _, h := range handlers {
		h := h
		d.invoke("disconnected", func() { h(reason) })
	}
}

func (d *dispatcher) emitError(err error) {
	d.mu.RLock()
	handlers := make([]func(error), 0, len(d.errs))
	for _, h := range d.errs {
		handlers = append(handlers, h)
	}
	d.mu.RUnlock()
	for _, h := range handlers {
		h := h
		d.invoke("error", func() { h(err) })
	}
}

func (d *dispatcher) emitNotification(n model.Notification) {
	d.mu.RLock()
	handlers := make([]func(model.Notification), 0, len(d.notification))
	for _, h := range d.notification {
		handlers = append(handlers, h)
	}
	d.mu.RUnlock()
	for _, h := range handlers {
		h := h
		d.invoke("notification", func() { h(n) })
	}
}

func (d *dispatcher) emitMetrics(m model.Metrics) {
	d.mu.RLock()
	handlers := make([]func(model.Metrics), 0, len(d.metrics))
	for _, h := range d.metrics {
		handlers = append(handlers, h)
	}
	d.mu.RUnlock()
	for _, h := range handlers {
		h := h
		d.invoke("metrics", func() { h(m) })
	}
}

func (d *dispatcher) emitUserActivity(a model.UserActivity) {
	d.mu.RLock()
	handlers := make([]func(model.UserActivity), 0, len(d.activity))
	for _, h := range d.activity {
		handlers = append(handlers, h)
	}
	d.mu.RUnlock()
	for _, h := range handlers {
		h := h
		d.invoke("user_activity", func() { h(a) })
	}
}

func (d *dispatcher) emitMaxReconnectAttempts(attempts int) {
	d.mu.RLock()
	handlers := make([]func(int), 0, len(d.maxAttempts))
	for _, h := range d.maxAttempts {
		handlers = append(handlers, h)
	}
	d.mu.RUnlock()
	for _, h := range handlers {
		h := h
		d.invoke("max_reconnect_attempts", func() { h(attempts) })
	}
}
