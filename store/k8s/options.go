package k8s

import "log/slog"

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithLeasePrefix sets the prefix of Lease object names.
// Default: "cronlock-".
func WithLeasePrefix(prefix string) Option {
	return func(s *Store) { s.leasePrefix = prefix }
}
