package config

import "time"

// WatchConfig is the root configuration for a feedwatch instance.
type WatchConfig struct {
	Instance      InstanceConfig `yaml:"instance"`
	Endpoint      EndpointConfig `yaml:"endpoint"`
	Feed          FeedConfig     `yaml:"feed"`
	Store         StoreConfig    `yaml:"store"`
	Poller        PollerConfig   `yaml:"poller"`
	Exporter      ExporterConfig `yaml:"exporter"`
	Subscriptions []string       `yaml:"subscriptions"`
}

// InstanceConfig identifies this watcher.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// EndpointConfig holds admin event endpoint settings.
type EndpointConfig struct {
	URL          string        `yaml:"url"`           // e.g., wss://api.example.com/admin/events
	DialTimeout  time.Duration `yaml:"dial_timeout"`  // WebSocket handshake timeout
	WriteTimeout time.Duration `yaml:"write_timeout"` // Write deadline for sends
}

// FeedConfig holds realtime client settings.
type FeedConfig struct {
	HeartbeatInterval    time.Duration `yaml:"heartbeat_interval"`
	ReconnectBaseDelay   time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay    time.Duration `yaml:"reconnect_max_delay"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	MessageBufferSize    int           `yaml:"message_buffer_size"`
}

// StoreConfig holds projection settings.
type StoreConfig struct {
	NotificationCap int `yaml:"notification_cap"`
}

// PollerConfig holds metrics poller settings.
type PollerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// ExporterConfig holds notification archive settings.
type ExporterConfig struct {
	Path          string        `yaml:"path"` // Empty disables the exporter
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}
