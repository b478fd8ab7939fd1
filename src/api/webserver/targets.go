package webserver

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stake-plus/activity-tickets/src/data"
	"github.com/stake-plus/activity-tickets/src/records"
	"github.com/stake-plus/activity-tickets/src/reset"
	"github.com/stake-plus/activity-tickets/src/slots"
)

// Health answers liveness probes.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type Targets struct {
	deps Deps
}

func NewTargets(deps Deps) Targets {
	return Targets{deps: deps}
}

type slotView struct {
	Day        int      `json:"day"`
	DayLabel   string   `json:"dayLabel"`
	Date       string   `json:"date,omitempty"`
	Coordinate string   `json:"coordinate"`
	Exists     bool     `json:"exists"`
	BlobID     string   `json:"blobId,omitempty"`
	Values     []string `json:"values,omitempty"`
}

type sweepView struct {
	Sheet    string            `json:"sheet"`
	Day      int               `json:"day"`
	Cleared  int               `json:"cleared"`
	Deleted  []string          `json:"deleted"`
	Failures map[string]string `json:"failures,omitempty"`
}

// target resolves the guild's record target, writing the error response
// when it cannot.
func (t Targets) target(c *gin.Context) (records.Target, bool) {
	guildID := c.Param("guild")
	cfg, err := t.deps.Guilds.Get(c.Request.Context(), guildID)
	if errors.Is(err, data.ErrGuildNotConfigured) {
		c.JSON(http.StatusNotFound, gin.H{"err": "guild not configured"})
		return records.Target{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return records.Target{}, false
	}
	target := cfg.Target(t.deps.Default)
	if !target.Valid() {
		c.JSON(http.StatusConflict, gin.H{"err": "spreadsheet not configured"})
		return records.Target{}, false
	}
	return target, true
}

func (t Targets) Week(c *gin.Context) {
	target, ok := t.target(c)
	if !ok {
		return
	}
	snapshot, err := t.deps.Ledgers(target).Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"err": err.Error()})
		return
	}
	out := make([]slotView, 0, len(snapshot))
	for _, s := range snapshot {
		out = append(out, slotView{
			Day:        s.Day,
			DayLabel:   s.DayLabel,
			Date:       s.Date,
			Coordinate: s.Coordinate,
			Exists:     s.Exists,
			BlobID:     s.BlobID,
			Values:     s.Values,
		})
	}
	c.JSON(http.StatusOK, gin.H{"sheet": target.Key(), "slots": out})
}

func (t Targets) Audit(c *gin.Context) {
	if t.deps.Audit == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"err": "audit log not available"})
		return
	}
	var q struct {
		Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if q.Limit == 0 {
		q.Limit = 50
	}
	rows, err := t.deps.Audit.Recent(c.Request.Context(), c.Param("guild"), q.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": rows})
}

func (t Targets) Reset(c *gin.Context) {
	target, ok := t.target(c)
	if !ok {
		return
	}
	log.Printf("webserver: %s requested a full reset of %s", c.GetString("sub"), target.Key())
	t.respondSweep(c, t.deps.Resets.Sweep(c.Request.Context(), target))
}

func (t Targets) ResetDay(c *gin.Context) {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil || !slots.ValidDay(day) {
		c.JSON(http.StatusBadRequest, gin.H{"err": "day must be 0 (Sunday) through 6 (Saturday)"})
		return
	}
	target, ok := t.target(c)
	if !ok {
		return
	}
	log.Printf("webserver: %s requested a reset of %s on %s", c.GetString("sub"), slots.DayLabel(day), target.Key())
	t.respondSweep(c, t.deps.Resets.SweepDay(c.Request.Context(), target, day))
}

func (t Targets) respondSweep(c *gin.Context, res reset.SweepResult) {
	if res.Err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"err": res.Err.Error()})
		return
	}
	view := sweepView{
		Sheet:   res.Target.Key(),
		Day:     res.Day,
		Cleared: res.Cleared,
		Deleted: res.Deleted,
	}
	if view.Deleted == nil {
		view.Deleted = []string{}
	}
	if len(res.Failures) > 0 {
		view.Failures = make(map[string]string, len(res.Failures))
		for id, err := range res.Failures {
			view.Failures[id] = err.Error()
		}
	}
	status := http.StatusOK
	if len(res.Failures) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, view)
}
