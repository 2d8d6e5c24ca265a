package cronlock

import "errors"

var (
	// Store errors.
	ErrNoStore     = errors.New("cronlock: no store configured")
	ErrStoreClosed = errors.New("cronlock: store closed")

	// Not found errors.
	ErrLockNotFound = errors.New("cronlock: lock not found")
	ErrRunNotFound  = errors.New("cronlock: run record not found")
	ErrJobNotFound  = errors.New("cronlock: cron job not found")

	// Conflict errors. Backends return ErrLockConflict when a concurrent
	// writer won the race for the same lock record.
	ErrLockConflict = errors.New("cronlock: lock write conflict")

	// Registration errors.
	ErrInvalidAlias       = errors.New("cronlock: job alias must not be empty")
	ErrDuplicateJob       = errors.New("cronlock: duplicate cron job alias")
	ErrIntervalTooShort   = errors.New("cronlock: interval below minimum")
	ErrTimeoutTooLong     = errors.New("cronlock: timeout above maximum")
	ErrInvalidTimeout     = errors.New("cronlock: timeout must not be negative")
	ErrNilHandler         = errors.New("cronlock: job handler is nil")
	ErrRegistrationClosed = errors.New("cronlock: registration closed after scheduler start")
	ErrInvalidInterval    = errors.New("cronlock: interval expression not supported")

	// Lifecycle errors.
	ErrAlreadyStarted = errors.New("cronlock: scheduler already started")
	ErrNotStarted     = errors.New("cronlock: scheduler not started")

	// Configuration errors.
	ErrInvalidConfig = errors.New("cronlock: invalid configuration")
)
