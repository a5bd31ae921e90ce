package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected  = errors.New("not connected")
	ErrAlreadyClosed = errors.New("already closed")
	ErrEmptyToken    = errors.New("token is required")
)

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// Config configures a WebSocket transport client.
type Config struct {
	URL          string        // Admin event endpoint (e.g., wss://api.example.com/admin/events)
	Token        string        // Bearer token, sent as "token" query parameter
	DialTimeout  time.Duration // Handshake timeout
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Message channel buffer size
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		DialTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   1000,
	}
}
