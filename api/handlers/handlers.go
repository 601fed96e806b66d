package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devadigapratham/printeta/api/models"
	"github.com/devadigapratham/printeta/internal/clock"
	"github.com/devadigapratham/printeta/internal/printstate"
	"github.com/devadigapratham/printeta/internal/progress"
	"github.com/devadigapratham/printeta/internal/queue"
	"github.com/devadigapratham/printeta/internal/timeline"
	"github.com/devadigapratham/printeta/raft"
)

// Cluster accepts replicated commands
type Cluster interface {
	Apply(cmd *models.Command) error
	Leader() bool
	LeaderAddress() string
}

// Store is the read side of the replicated state
type Store interface {
	Printers() []*models.Printer
	Printer(id string) (*models.Printer, bool)
	Filaments() []*models.Filament
	PrintJobs() []*models.PrintJob
	Job(id string) (*models.PrintJob, bool)
	State() *raft.State
}

// Handler represents the API handlers
type Handler struct {
	Cluster   Cluster
	Store     Store
	Clock     clock.Clock
	Timelines *timeline.Builder
	Ticker    *progress.Ticker
	Log       logrus.FieldLogger
}

// NewHandler creates a new Handler. Timestamps are formatted in loc.
func NewHandler(cluster Cluster, store Store, ticker *progress.Ticker, clk clock.Clock, loc *time.Location, log logrus.FieldLogger) *Handler {
	return &Handler{
		Cluster:   cluster,
		Store:     store,
		Clock:     clk,
		Timelines: timeline.NewBuilder(loc),
		Ticker:    ticker,
		Log:       log,
	}
}

// RaftLeaderMiddleware rejects writes on followers and names the leader
func (h *Handler) RaftLeaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead && !h.Cluster.Leader() {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error":  "not the leader",
				"leader": h.Cluster.LeaderAddress(),
			})
			return
		}
		c.Next()
	}
}

// GetSnapshot returns every replicated record in the format read by the
// printeta CLI
func (h *Handler) GetSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.State())
}

// apply stamps cmd with the handler clock and replicates it
func (h *Handler) apply(cmd *models.Command) error {
	cmd.Timestamp = h.Clock.Now()
	return h.Cluster.Apply(cmd)
}

// fail writes err as JSON with the matching status code
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := gin.H{"error": err.Error()}

	switch {
	case errors.Is(err, raft.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, raft.ErrNotLeader):
		status = http.StatusConflict
		body["leader"] = h.Cluster.LeaderAddress()
	case errors.Is(err, printstate.ErrInvalidTransition),
		errors.Is(err, raft.ErrInsufficientFilament),
		errors.Is(err, raft.ErrInvalidCommand),
		errors.Is(err, clock.ErrInvalidDuration):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.Log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.JSON(status, body)
}

// printerQueue derives the queue of printerID from the current jobs
func (h *Handler) printerQueue(printerID string) *queue.Queue {
	return queue.ForPrinter(printerID, h.Store.PrintJobs())
}

// jobParam loads the job named by the :id parameter or writes a 404
func (h *Handler) jobParam(c *gin.Context) (*models.PrintJob, bool) {
	job, ok := h.Store.Job(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "print job not found"})
		return nil, false
	}
	return job, true
}
