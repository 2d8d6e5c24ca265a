package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xraph/cronlock"
	"github.com/xraph/cronlock/ledger"
)

func (a *API) health(c *gin.Context) {
	sched := a.eng.Scheduler()
	if err := a.eng.Store().Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status:     "ok",
		InstanceID: sched.InstanceID().String(),
		Owner:      sched.IsOwner(),
	})
}

func (a *API) listCrons(c *gin.Context) {
	sched := a.eng.Scheduler()
	snapshot := sched.Snapshot()

	out := ListCronsResponse{
		InstanceID: sched.InstanceID().String(),
		Owner:      sched.IsOwner(),
		Crons:      make([]CronResponse, 0, len(snapshot)),
	}
	for _, st := range snapshot {
		out.Crons = append(out.Crons, toCronResponse(st))
	}
	c.JSON(http.StatusOK, out)
}

func (a *API) getCron(c *gin.Context) {
	st, err := a.eng.Scheduler().Status(c.Param("alias"))
	if err != nil {
		a.fail(c, err)
		return
	}

	out := toCronResponse(st)
	rec, err := a.eng.Ledger().GetRun(c.Request.Context(), st.Alias)
	switch {
	case err == nil:
		out.LastStartDate = &rec.LastStartDate
	case !errors.Is(err, cronlock.ErrRunNotFound):
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (a *API) getLock(c *gin.Context) {
	rec, err := a.eng.Locks().Get(c.Request.Context(), c.Param("resource"))
	if err != nil {
		a.fail(c, err)
		return
	}

	cfg := a.eng.Config()
	staleAt := rec.StaleAt(cfg.LeaseDuration)
	c.JSON(http.StatusOK, LockResponse{
		Resource:   rec.Resource,
		OwnerID:    rec.OwnerID,
		AcquiredAt: rec.AcquiredAt,
		StaleAt:    staleAt,
		Stale:      staleAt.Before(a.eng.Clock().Now()),
		HeldByMe:   rec.OwnerID == a.eng.InstanceID().String(),
	})
}

func (a *API) listRuns(c *gin.Context) {
	runs, err := a.eng.Ledger().ListRuns(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	if runs == nil {
		runs = []*ledger.Record{}
	}
	c.JSON(http.StatusOK, ListRunsResponse{Runs: runs})
}
