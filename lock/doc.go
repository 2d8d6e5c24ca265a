// Package lock implements a lease-based distributed lock on top of a
// conditional record store.
//
// A lock is one record per resource name holding the owner ID and the
// time it was last acquired. [Manager.Acquire] issues a single atomic
// upsert that succeeds when the record is missing, already owned by the
// caller (refresh), or older than the lease (stale takeover). There is no
// expiry in the store itself: staleness is judged lazily by whoever tries
// to acquire next.
//
// Contention is not an error. Acquire, Release and Verify return false
// when the caller does not get or hold the lock, and also when the store
// fails; store failures are logged.
//
// Backends implement [Store]. See store/memory, store/postgres,
// store/bun, store/redis, store/mongo and store/k8s.
package lock
