package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devadigapratham/printeta/api/models"
	"github.com/devadigapratham/printeta/internal/clock"
	"github.com/devadigapratham/printeta/internal/printstate"
)

type createPrintJobRequest struct {
	ID                 string            `json:"id"`
	PrinterID          string            `json:"printer_id" binding:"required"`
	FilamentID         string            `json:"filament_id" binding:"required"`
	Filepath           string            `json:"filepath"`
	PrintWeightInGrams int               `json:"print_weight_in_grams"`
	EstTime            clock.ISODuration `json:"est_time"`
}

// CreatePrintJob queues a new print job
func (h *Handler) CreatePrintJob(c *gin.Context) {
	var req createPrintJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.EstTime <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "est_time must be a positive duration"})
		return
	}
	if req.PrintWeightInGrams < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "print_weight_in_grams must not be negative"})
		return
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	cmd := &models.Command{
		Type: models.AddPrintJob,
		PrintJob: &models.PrintJob{
			ID:                 req.ID,
			PrinterID:          req.PrinterID,
			FilamentID:         req.FilamentID,
			Filepath:           req.Filepath,
			PrintWeightInGrams: req.PrintWeightInGrams,
			EstTime:            req.EstTime,
		},
	}
	if err := h.apply(cmd); err != nil {
		h.fail(c, err)
		return
	}

	job, ok := h.Store.Job(req.ID)
	if !ok {
		job = cmd.PrintJob
	}
	c.JSON(http.StatusCreated, job)
}

// GetPrintJobs returns print jobs, optionally filtered by status and printer
func (h *Handler) GetPrintJobs(c *gin.Context) {
	var status printstate.State
	if s := c.Query("status"); s != "" {
		parsed, err := printstate.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		status = parsed
	}
	printerID := c.Query("printer_id")

	jobs := make([]*models.PrintJob, 0)
	for _, j := range h.Store.PrintJobs() {
		if status != "" && j.Status != status {
			continue
		}
		if printerID != "" && j.PrinterID != printerID {
			continue
		}
		jobs = append(jobs, j)
	}
	c.JSON(http.StatusOK, jobs)
}

// GetPrintJob returns one print job
func (h *Handler) GetPrintJob(c *gin.Context) {
	job, ok := h.jobParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, job)
}

// UpdatePrintJobStatus moves a print job to the status given in the query
func (h *Handler) UpdatePrintJobStatus(c *gin.Context) {
	newStatus, err := printstate.Parse(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	job, ok := h.jobParam(c)
	if !ok {
		return
	}
	if err := printstate.ValidateTransition(job.Status, newStatus); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := &models.Command{
		Type:      models.UpdatePrintJob,
		JobID:     job.ID,
		NewStatus: newStatus,
	}
	if err := h.apply(cmd); err != nil {
		h.fail(c, err)
		return
	}

	updated, _ := h.Store.Job(job.ID)
	c.JSON(http.StatusOK, updated)
}
