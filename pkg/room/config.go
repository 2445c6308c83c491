package room

import "time"

// Config holds tunables shared by sessions, rooms, and the registry.
type Config struct {
	// WriteTimeout is the maximum time to wait when sending a frame.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// PongTimeout is how long to wait for a pong before the connection is
	// considered dead. Default: 60 seconds.
	PongTimeout time.Duration

	// PingInterval is the time between heartbeat pings. Must be shorter
	// than PongTimeout. Default: 54 seconds.
	PingInterval time.Duration

	// MaxMessageSize is the maximum size of an incoming frame.
	// Default: 1MB (whiteboard updates can carry embedded asset refs).
	MaxMessageSize int64

	// SendQueueSize is the per-session send queue depth. A session whose
	// queue overflows is disconnected rather than stalling the broadcaster.
	// Default: 256.
	SendQueueSize int

	// GracePeriod is how long an empty room survives before reclamation,
	// absorbing quick refresh/reconnect cycles. Zero reclaims immediately.
	// Default: 30 seconds.
	GracePeriod time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		WriteTimeout:   10 * time.Second,
		PongTimeout:    60 * time.Second,
		PingInterval:   54 * time.Second,
		MaxMessageSize: 1 << 20,
		SendQueueSize:  256,
		GracePeriod:    30 * time.Second,
	}
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// withDefaults fills unset fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}
	defaults := DefaultConfig()
	clone := c.Clone()
	if clone.WriteTimeout == 0 {
		clone.WriteTimeout = defaults.WriteTimeout
	}
	if clone.PongTimeout == 0 {
		clone.PongTimeout = defaults.PongTimeout
	}
	if clone.PingInterval == 0 {
		clone.PingInterval = defaults.PingInterval
	}
	if clone.MaxMessageSize == 0 {
		clone.MaxMessageSize = defaults.MaxMessageSize
	}
	if clone.SendQueueSize == 0 {
		clone.SendQueueSize = defaults.SendQueueSize
	}
	return clone
}
