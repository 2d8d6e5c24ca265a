package api

import (
	"time"

	"github.com/xraph/cronlock/cron"
	"github.com/xraph/cronlock/ledger"
)

// CronResponse is one job as reported by the admin API.
type CronResponse struct {
	Alias           string     `json:"alias"`
	Description     string     `json:"description,omitempty"`
	IntervalSeconds float64    `json:"interval_s"`
	TimeoutSeconds  float64    `json:"timeout_s"`
	State           cron.State `json:"state"`
	LastStartDate   *time.Time `json:"last_start_date,omitempty"`
}

func toCronResponse(st cron.Status) CronResponse {
	return CronResponse{
		Alias:           st.Alias,
		Description:     st.Description,
		IntervalSeconds: st.Interval.Seconds(),
		TimeoutSeconds:  st.Timeout.Seconds(),
		State:           st.State,
	}
}

// ListCronsResponse is the body of GET /v1/crons.
type ListCronsResponse struct {
	InstanceID string         `json:"instance_id"`
	Owner      bool           `json:"owner"`
	Crons      []CronResponse `json:"crons"`
}

// LockResponse is the body of GET /v1/locks/:resource.
type LockResponse struct {
	Resource   string    `json:"resource"`
	OwnerID    string    `json:"owner_id"`
	AcquiredAt time.Time `json:"acquired_at"`
	StaleAt    time.Time `json:"stale_at"`
	Stale      bool      `json:"stale"`
	HeldByMe   bool      `json:"held_by_me"`
}

// ListRunsResponse is the body of GET /v1/runs.
type ListRunsResponse struct {
	Runs []*ledger.Record `json:"runs"`
}

// HealthResponse is the body of GET /v1/health.
type HealthResponse struct {
	Status     string `json:"status"`
	InstanceID string `json:"instance_id"`
	Owner      bool   `json:"owner"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}
