package feed

import (
	"errors"
	"time"
)

// Errors
var (
	ErrEmptyToken = errors.New("token is required")
)

// State is the connection state of the feed client.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateError        State = "error"
)

// Config configures the feed client.
type Config struct {
	URL                  string        // Admin event endpoint (e.g., wss://api.example.com/admin/events)
	HeartbeatInterval    time.Duration // Application-level ping cadence
	ReconnectBaseDelay   time.Duration // First retry delay
	ReconnectMaxDelay    time.Duration // Backoff ceiling
	MaxReconnectAttempts int           // Retries before giving up
	DialTimeout          time.Duration // Transport handshake timeout
	WriteTimeout         time.Duration // Transport write deadline
	BufferSize           int           // Transport message channel buffer size
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval:    30 * time.Second,
		ReconnectBaseDelay:   1 * time.Second,
		ReconnectMaxDelay:    30 * time.Second,
		MaxReconnectAttempts: 5,
		DialTimeout:          10 * time.Second,
		WriteTimeout:         5 * time.Second,
		BufferSize:           1000,
	}
}

// Stats contains runtime counters for the feed client.
type Stats struct {
	MessagesReceived   int64
	MessagesDispatched int64
	ParseErrors        int64
	UnknownMessages    int64
	Reconnects         int64
}
