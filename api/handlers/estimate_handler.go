package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devadigapratham/printeta/internal/progress"
	"github.com/devadigapratham/printeta/internal/queue"
)

type etaResponse struct {
	queue.Estimate
	EstimatedCompletion time.Time `json:"estimated_completion"`
}

// GetPrintJobETA returns when the job is expected to start and finish
func (h *Handler) GetPrintJobETA(c *gin.Context) {
	job, ok := h.jobParam(c)
	if !ok {
		return
	}

	now := h.Clock.Now()
	q := h.printerQueue(job.PrinterID)
	tl := h.Timelines.Build(job, q, now)
	c.JSON(http.StatusOK, etaResponse{
		Estimate:            queue.EstimateWait(job, q, now),
		EstimatedCompletion: tl.EstimatedCompletion,
	})
}

// GetPrintJobTimeline returns the recorded and predicted events of a job
func (h *Handler) GetPrintJobTimeline(c *gin.Context) {
	job, ok := h.jobParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.Timelines.Build(job, h.printerQueue(job.PrinterID), h.Clock.Now()))
}

// GetPrintJobProgress returns the live progress of a job at this instant
func (h *Handler) GetPrintJobProgress(c *gin.Context) {
	job, ok := h.jobParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, progress.Compute(job, h.Clock.Now()))
}

// StreamPrintJobProgress pushes a progress event on every tick until the
// client goes away.
func (h *Handler) StreamPrintJobProgress(c *gin.Context) {
	job, ok := h.jobParam(c)
	if !ok {
		return
	}

	obs := h.Ticker.Attach(job.ID)
	defer obs.Detach()

	log := h.Log.WithField("job_id", job.ID)
	log.Debug("progress stream opened")
	defer log.Debug("progress stream closed")

	done := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-done:
			return false
		case s, ok := <-obs.C:
			if !ok {
				return false
			}
			c.SSEvent("progress", s)
			return true
		}
	})
}
