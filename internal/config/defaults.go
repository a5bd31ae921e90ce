package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultDialTimeout          = 10 * time.Second
	DefaultWriteTimeout         = 5 * time.Second
	DefaultHeartbeatInterval    = 30 * time.Second
	DefaultReconnectBaseDelay   = 1 * time.Second
	DefaultReconnectMaxDelay    = 30 * time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultMessageBufferSize    = 1000
	DefaultNotificationCap      = 100
	DefaultPollerInterval       = 30 * time.Second
	DefaultExportBatchSize      = 50
	DefaultExportFlushInterval  = 2 * time.Second
)

func (c *WatchConfig) applyDefaults() {
	// Endpoint defaults
	if c.Endpoint.DialTimeout == 0 {
		c.Endpoint.DialTimeout = DefaultDialTimeout
	}
	if c.Endpoint.WriteTimeout == 0 {
		c.Endpoint.WriteTimeout = DefaultWriteTimeout
	}

	// Feed defaults
	if c.Feed.HeartbeatInterval == 0 {
		c.Feed.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Feed.ReconnectBaseDelay == 0 {
		c.Feed.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Feed.ReconnectMaxDelay == 0 {
		c.Feed.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Feed.MaxReconnectAttempts == 0 {
		c.Feed.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Feed.MessageBufferSize == 0 {
		c.Feed.MessageBufferSize = DefaultMessageBufferSize
	}

	// Store defaults
	if c.Store.NotificationCap == 0 {
		c.Store.NotificationCap = DefaultNotificationCap
	}

	// Poller defaults
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollerInterval
	}

	// Exporter defaults
	if c.Exporter.BatchSize == 0 {
		c.Exporter.BatchSize = DefaultExportBatchSize
	}
	if c.Exporter.FlushInterval == 0 {
		c.Exporter.FlushInterval = DefaultExportFlushInterval
	}
}
