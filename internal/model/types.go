package model

import (
	"encoding/json"
	"time"
)

// -----------------------------------------------------------------------------
// Wire Envelope
// -----------------------------------------------------------------------------

// Envelope is the wire format for every message exchanged with the admin
// event endpoint. Type selects the payload shape carried in Data.
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp,omitempty"`
}

// Server → client message types.
const (
	TypeNotification = "notification"
	TypeMetrics      = "metrics"
	TypeUserActivity = "user_activity"
	TypePong         = "pong"
)

// Client → server message types.
const (
	TypeSubscribe      = "subscribe"
	TypeRequestMetrics = "request_metrics"
	TypeMarkRead       = "mark_read"
	TypePing           = "ping"
)

// -----------------------------------------------------------------------------
// Server Push Payloads
// -----------------------------------------------------------------------------

// Notification severity levels.
const (
	NotificationInfo    = "info"
	NotificationWarning = "warning"
	NotificationError   = "error"
	NotificationSuccess = "success"
)

// Notification priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Notification is an admin alert pushed by the server.
type Notification struct {
	ID        string    `json:"id"`       // Server-assigned, unique
	Type      string    `json:"type"`     // info, warning, error, success
	Title     string    `json:"title"`    // Short headline
	Message   string    `json:"message"`  // Body text
	Timestamp time.Time `json:"timestamp"`
	Priority  string    `json:"priority"` // low, medium, high
	Category  string    `json:"category"` // Subscription category (e.g. "billing")
	Read      bool      `json:"read"`
}

// Metrics is a point-in-time platform snapshot. Each push fully replaces
// the previous one; there is no history.
type Metrics struct {
	ActiveUsers  int       `json:"activeUsers"`
	TotalCalls   int64     `json:"totalCalls"`
	SystemLoad   float64   `json:"systemLoad"`   // Percent
	ErrorRate    float64   `json:"errorRate"`    // Percent
	ResponseTime float64   `json:"responseTime"` // Milliseconds
	Timestamp    time.Time `json:"timestamp"`
}

// UserActivity reports a user action on the platform. Details is
// open-ended and passed through untouched.
type UserActivity struct {
	UserID    string          `json:"userId"`
	Action    string          `json:"action"`
	Timestamp time.Time       `json:"timestamp,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
}

// -----------------------------------------------------------------------------
// Client Commands
// -----------------------------------------------------------------------------

// SubscribeCommand asks the server to push notifications for the given
// categories. The set is sent verbatim; the server owns deduplication.
type SubscribeCommand struct {
	Type       string   `json:"type"` // Always "subscribe"
	Categories []string `json:"categories"`
}

// RequestMetricsCommand asks the server for an immediate metrics push.
type RequestMetricsCommand struct {
	Type string `json:"type"` // Always "request_metrics"
}

// MarkReadCommand marks a notification as read server-side.
type MarkReadCommand struct {
	Type           string `json:"type"` // Always "mark_read"
	NotificationID string `json:"notificationId"`
}

// PingCommand is the application-level heartbeat.
type PingCommand struct {
	Type string `json:"type"` // Always "ping"
}
