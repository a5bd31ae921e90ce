package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/callscope/adminfeed/internal/feed"
	"github.com/callscope/adminfeed/internal/model"
)

// fakeFeed implements FeedClient and lets tests fire events directly.
type fakeFeed struct {
	state feed.State

	onConnected    func()
	onError        func(error)
	onNotification func(model.Notification)
	onMetrics      func(model.Metrics)
	onExhausted    func(int)

	subscribed   []string
	metricsCalls int
	markedRead   []string
	disconnected bool
	removed      int
}

func (f *fakeFeed) OnConnected(h func()) func() {
	f.onConnected = h
	return func() { f.removed++ }
}
func (f *fakeFeed) OnDisconnected(h func(string)) func() { return func() { f.removed++ } }
func (f *fakeFeed) OnError(h func(error)) func() {
	f.onError = h
	return func() { f.removed++ }
}
func (f *fakeFeed) OnNotification(h func(model.Notification)) func() {
	f.onNotification = h
	return func() { f.removed++ }
}
func (f *fakeFeed) OnMetrics(h func(model.Metrics)) func() {
	f.onMetrics = h
	return func() { f.removed++ }
}
func (f *fakeFeed) OnUserActivity(h func(model.UserActivity)) func() { return func() { f.removed++ } }
func (f *fakeFeed) OnMaxReconnectAttempts(h func(int)) func() {
	f.onExhausted = h
	return func() { f.removed++ }
}
func (f *fakeFeed) State() feed.State { return f.state }
func (f *fakeFeed) SubscribeToNotifications(categories []string) {
	f.subscribed = categories
}
func (f *fakeFeed) RequestMetrics() { f.metricsCalls++ }
func (f *fakeFeed) MarkNotificationRead(id string) {
	f.markedRead = append(f.markedRead, id)
}
func (f *fakeFeed) Disconnect() { f.disconnected = true }

func newTestStore(t *testing.T) (*Store, *fakeFeed) {
	t.Helper()
	client := &fakeFeed{state: feed.StateConnected}
	return New(Config{}, client, nil), client
}

func TestStore_Notifications(t *testing.T) {
	s, client := newTestStore(t)

	client.onNotification(model.Notification{ID: "a", Category: "calls"})
	client.onNotification(model.Notification{ID: "b", Category: "billing"})

	items := s.Notifications()
	if len(items) != 2 {
		t.Fatalf("got %d notifications, want 2", len(items))
	}
	if items[0].ID != "b" || items[1].ID != "a" {
		t.Errorf("order = [%s %s], want [b a] (newest first)", items[0].ID, items[1].ID)
	}
	if got := s.UnreadCount(); got != 2 {
		t.Errorf("UnreadCount = %d, want 2", got)
	}
}

func TestStore_MetricsReplaced(t *testing.T) {
	s, client := newTestStore(t)

	if _, ok := s.Metrics(); ok {
		t.Fatal("Metrics ok = true before any push")
	}

	first := model.Metrics{
		ActiveUsers:  10,
		TotalCalls:   50,
		SystemLoad:   25.5,
		ErrorRate:    1.2,
		ResponseTime: 150,
		Timestamp:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	client.onMetrics(first)

	got, ok := s.Metrics()
	if !ok {
		t.Fatal("Metrics ok = false after push")
	}
	if got != first {
		t.Errorf("Metrics = %+v, want %+v", got, first)
	}

	// A second push replaces the whole snapshot, nothing is merged.
	second := model.Metrics{
		ActiveUsers: 12,
		Timestamp:   time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC),
	}
	client.onMetrics(second)

	got, _ = s.Metrics()
	if got != second {
		t.Errorf("Metrics = %+v, want full replacement %+v", got, second)
	}
	if got.TotalCalls != 0 {
		t.Errorf("TotalCalls = %d, want 0 (stale field must not survive)", got.TotalCalls)
	}
}

func TestStore_MarkRead(t *testing.T) {
	s, client := newTestStore(t)

	client.onNotification(model.Notification{ID: "n-1"})
	s.MarkRead("n-1")

	if got := s.UnreadCount(); got != 0 {
		t.Errorf("UnreadCount = %d, want 0", got)
	}
	if len(client.markedRead) != 1 || client.markedRead[0] != "n-1" {
		t.Errorf("client.markedRead = %v, want [n-1]", client.markedRead)
	}

	// Unknown IDs are still forwarded; the server may know them.
	s.MarkRead("elsewhere")
	if len(client.markedRead) != 2 {
		t.Errorf("markedRead = %v, want forwarding for unknown id", client.markedRead)
	}
}

func TestStore_NotificationCap(t *testing.T) {
	client := &fakeFeed{state: feed.StateConnected}
	s := New(Config{NotificationCap: 3}, client, nil)

	for _, id := range []string{"a", "b", "c", "d"} {
		client.onNotification(model.Notification{ID: id})
	}

	items := s.Notifications()
	if len(items) != 3 {
		t.Fatalf("got %d notifications, want 3", len(items))
	}
	if items[2].ID != "b" {
		t.Errorf("oldest = %q, want b (a evicted)", items[2].ID)
	}
}

func TestStore_ClearAndPassthrough(t *testing.T) {
	s, client := newTestStore(t)

	client.onNotification(model.Notification{ID: "n-1"})
	s.ClearNotifications()
	if got := len(s.Notifications()); got != 0 {
		t.Errorf("notifications after clear = %d, want 0", got)
	}

	s.Subscribe([]string{"calls"})
	if len(client.subscribed) != 1 || client.subscribed[0] != "calls" {
		t.Errorf("subscribed = %v, want [calls]", client.subscribed)
	}

	s.RequestMetrics()
	if client.metricsCalls != 1 {
		t.Errorf("metricsCalls = %d, want 1", client.metricsCalls)
	}

	if got := s.ConnectionState(); got != feed.StateConnected {
		t.Errorf("ConnectionState = %q, want %q", got, feed.StateConnected)
	}
}

func TestStore_ErrorLifecycle(t *testing.T) {
	s, client := newTestStore(t)

	wantErr := errors.New("connection reset")
	client.onError(wantErr)
	if got := s.LastError(); got != wantErr {
		t.Errorf("LastError = %v, want %v", got, wantErr)
	}

	client.onExhausted(5)
	if !s.ReconnectExhausted() {
		t.Error("ReconnectExhausted = false after exhaustion event")
	}

	// A successful reconnect clears both.
	client.onConnected()
	if got := s.LastError(); got != nil {
		t.Errorf("LastError after reconnect = %v, want nil", got)
	}
	if s.ReconnectExhausted() {
		t.Error("ReconnectExhausted = true after reconnect")
	}
}

func TestStore_Close(t *testing.T) {
	s, client := newTestStore(t)

	s.Close()

	if !client.disconnected {
		t.Error("Close did not disconnect the feed client")
	}
	if client.removed != 5 {
		t.Errorf("removed %d handlers, want 5", client.removed)
	}
}

// TestStore_EndToEnd drives a real feed client against a mock endpoint and
// checks the store's derived state.
func TestStore_EndToEnd(t *testing.T) {
	push := make(chan string, 10)
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
		for frame := range push {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
	}))
	defer server.Close()
	defer close(push)

	client := feed.New(feed.Config{
		URL: "ws" + strings.TrimPrefix(server.URL, "http"),
	}, nil)
	s := New(Config{}, client, nil)
	defer s.Close()

	if err := client.Connect(context.Background(), "t1"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	push <- `{"type":"notification","data":{"id":"n-1","type":"info","title":"Deploy","message":"Agent pool updated","priority":"low","category":"system"}}`
	push <- `{"type":"metrics","data":{"activeUsers":10,"totalCalls":50,"systemLoad":25.5,"errorRate":1.2,"responseTime":150,"timestamp":"2024-01-01T00:00:00Z"}}`
	push <- `{"type":"metrics","data":{"activeUsers":12,"timestamp":"2024-01-01T00:01:00Z"}}`

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if m, ok := s.Metrics(); ok && m.ActiveUsers == 12 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	m, ok := s.Metrics()
	if !ok || m.ActiveUsers != 12 {
		t.Fatalf("Metrics = %+v ok=%v, want activeUsers 12", m, ok)
	}
	if m.TotalCalls != 0 {
		t.Errorf("TotalCalls = %d, want 0 after full replacement", m.TotalCalls)
	}

	items := s.Notifications()
	if len(items) != 1 || items[0].ID != "n-1" {
		t.Fatalf("notifications = %v, want one with ID n-1", items)
	}
	var want model.Notification
	if err := json.Unmarshal([]byte(`{"id":"n-1","type":"info","title":"Deploy","message":"Agent pool updated","priority":"low","category":"system"}`), &want); err != nil {
		t.Fatal(err)
	}
	if items[0] != want {
		t.Errorf("notification = %+v, want %+v", items[0], want)
	}
}
