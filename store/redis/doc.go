// Package redis implements store.Store on Redis.
//
// Each lock is a Hash holding owner_id and acquired_at. The conditional
// upsert and the owner-only delete run as Lua scripts, so each is atomic on
// the server. Run records live in one Hash keyed by job alias. Timestamps
// are Unix microseconds.
//
// Usage:
//
//	client := goredis.NewClient(&goredis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
package redis
