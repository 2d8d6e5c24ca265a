package cron

import (
	"time"

	"github.com/xraph/cronlock/id"
)

// State is the runtime bookkeeping of one job on the owning process.
type State struct {
	Running        bool       `json:"running"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	ScheduledRunAt *time.Time `json:"scheduled_run_at,omitempty"`
	RunID          id.RunID   `json:"run_id,omitzero"`

	LastResult     string     `json:"last_result,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
	LastFinishedAt *time.Time `json:"last_finished_at,omitempty"`
}

// Status pairs a job's metadata with its runtime state.
type Status struct {
	Metadata
	State State `json:"state"`
}

// softTimedOut reports whether a running job has outlived its timeout.
func (st *State) softTimedOut(timeout time.Duration, now time.Time) bool {
	return st.Running && st.StartedAt != nil && st.StartedAt.Add(timeout).Before(now)
}

// due reports whether an idle job should run at now.
func (st *State) due(now time.Time) bool {
	return !st.Running && st.ScheduledRunAt != nil && !st.ScheduledRunAt.After(now)
}

// idle moves the job back to Idle with its next run computed from the start
// of the run being retired.
func (st *State) idle(interval time.Duration) {
	if st.StartedAt != nil {
		next := st.StartedAt.Add(interval)
		st.ScheduledRunAt = &next
	}
	st.Running = false
	st.StartedAt = nil
	st.RunID = id.Nil
}

func (st State) clone() State {
	out := st
	out.StartedAt = copyTime(st.StartedAt)
	out.ScheduledRunAt = copyTime(st.ScheduledRunAt)
	out.LastFinishedAt = copyTime(st.LastFinishedAt)
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
