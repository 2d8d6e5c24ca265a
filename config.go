package cronlock

import (
	"fmt"
	"time"
)

// DefaultResource is the name of the lock that guards cron scheduling.
const DefaultResource = "cron"

// Config holds the timing parameters of a scheduler and its lock.
type Config struct {
	// Resource is the lock name contended by every replica.
	Resource string

	// LeaseDuration is how long a lock record stays valid without a
	// refresh. Older records may be taken over by another owner.
	LeaseDuration time.Duration

	// HeartbeatInterval is how often the owner refreshes its lock.
	// Must be shorter than LeaseDuration.
	HeartbeatInterval time.Duration

	// TickInterval is how often due jobs are evaluated.
	TickInterval time.Duration

	// StandbyInterval is how often a dormant replica retries acquiring the
	// lock. Zero keeps a replica that lost the startup race dormant.
	StandbyInterval time.Duration

	// ReleaseOnStop deletes the lock record on graceful shutdown so the
	// next replica does not wait for the lease to go stale.
	ReleaseOnStop bool

	// ShutdownTimeout bounds how long Stop waits for in-flight handlers.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Resource:          DefaultResource,
		LeaseDuration:     30 * time.Second,
		HeartbeatInterval: 10 * time.Second,
		TickInterval:      1 * time.Second,
		ReleaseOnStop:     true,
		ShutdownTimeout:   30 * time.Second,
	}
}

// Validate reports the first inconsistency in c.
func (c Config) Validate() error {
	switch {
	case c.Resource == "":
		return fmt.Errorf("%w: resource must not be empty", ErrInvalidConfig)
	case c.LeaseDuration <= 0:
		return fmt.Errorf("%w: lease duration must be positive", ErrInvalidConfig)
	case c.HeartbeatInterval <= 0:
		return fmt.Errorf("%w: heartbeat interval must be positive", ErrInvalidConfig)
	case c.HeartbeatInterval >= c.LeaseDuration:
		return fmt.Errorf("%w: heartbeat interval %s must be shorter than lease %s",
			ErrInvalidConfig, c.HeartbeatInterval, c.LeaseDuration)
	case c.TickInterval <= 0:
		return fmt.Errorf("%w: tick interval must be positive", ErrInvalidConfig)
	case c.StandbyInterval < 0:
		return fmt.Errorf("%w: standby interval must not be negative", ErrInvalidConfig)
	case c.ShutdownTimeout < 0:
		return fmt.Errorf("%w: shutdown timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}
