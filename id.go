package cronlock

import "github.com/xraph/cronlock/id"

// ID is the identifier type used for instances and runs.
type ID = id.ID

// Prefix identifies the entity type encoded in an ID.
type Prefix = id.Prefix
