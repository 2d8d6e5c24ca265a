// Package api exposes a read-only admin surface over an engine.Engine
// using gin.
//
// Routes:
//
//	GET /v1/health            store connectivity and ownership
//	GET /v1/crons             every job with its runtime state
//	GET /v1/crons/:alias      one job with its ledger record
//	GET /v1/locks/:resource   a lock record and whether it is stale
//	GET /v1/runs              the run ledger
//
// Runtime state is only populated on the replica that owns scheduling.
package api
