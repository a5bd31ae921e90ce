package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *WatchConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Endpoint.URL == "" {
		return errors.New("endpoint.url is required")
	}
	if !strings.HasPrefix(c.Endpoint.URL, "ws://") && !strings.HasPrefix(c.Endpoint.URL, "wss://") {
		return fmt.Errorf("endpoint.url must be a ws:// or wss:// URL, got %q", c.Endpoint.URL)
	}

	if c.Feed.HeartbeatInterval <= 0 {
		return errors.New("feed.heartbeat_interval must be > 0")
	}
	if c.Feed.ReconnectBaseDelay <= 0 {
		return errors.New("feed.reconnect_base_delay must be > 0")
	}
	if c.Feed.ReconnectMaxDelay < c.Feed.ReconnectBaseDelay {
		return fmt.Errorf("feed.reconnect_max_delay (%v) cannot be less than reconnect_base_delay (%v)",
			c.Feed.ReconnectMaxDelay, c.Feed.ReconnectBaseDelay)
	}
	if c.Feed.MaxReconnectAttempts < 1 {
		return errors.New("feed.max_reconnect_attempts must be >= 1")
	}
	if c.Feed.MessageBufferSize < 1 {
		return errors.New("feed.message_buffer_size must be >= 1")
	}

	if c.Store.NotificationCap < 1 {
		return errors.New("store.notification_cap must be >= 1")
	}

	if c.Poller.Enabled && c.Poller.Interval <= 0 {
		return errors.New("poller.interval must be > 0")
	}

	if c.Exporter.Path != "" {
		if c.Exporter.BatchSize < 1 {
			return errors.New("exporter.batch_size must be >= 1")
		}
		if c.Exporter.FlushInterval <= 0 {
			return errors.New("exporter.flush_interval must be > 0")
		}
	}

	return nil
}
