package redis

// Redis key naming conventions. All keys are prefixed with "cronlock:" to
// avoid collisions.

const keyPrefix = "cronlock:"

// lockKey returns the Hash key for a named lock: cronlock:lock:{resource}
func lockKey(resource string) string { return keyPrefix + "lock:" + resource }

// runsKey is the Hash mapping job alias to last start in Unix microseconds.
const runsKey = keyPrefix + "runs"
