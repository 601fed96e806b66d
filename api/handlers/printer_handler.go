package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devadigapratham/printeta/api/models"
	"github.com/devadigapratham/printeta/internal/queue"
)

// CreatePrinter creates a new printer
func (h *Handler) CreatePrinter(c *gin.Context) {
	var printer models.Printer
	if err := c.ShouldBindJSON(&printer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if printer.Model == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "model is required"})
		return
	}

	if printer.ID == "" {
		printer.ID = uuid.New().String()
	}

	if err := h.apply(&models.Command{Type: models.AddPrinter, Printer: &printer}); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, printer)
}

// GetPrinters returns all printers
func (h *Handler) GetPrinters(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.Printers())
}

type queueResponse struct {
	PrinterID string           `json:"printer_id"`
	Name      string           `json:"name"`
	Current   *string          `json:"current_job_id"`
	Jobs      []queue.Estimate `json:"jobs"`
}

// GetPrinterQueue lists the printer's waiting jobs with their predicted start
func (h *Handler) GetPrinterQueue(c *gin.Context) {
	printer, ok := h.Store.Printer(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "printer not found"})
		return
	}

	q := h.printerQueue(printer.ID)
	resp := queueResponse{
		PrinterID: printer.ID,
		Name:      printer.DisplayName(),
		Jobs:      queue.Board(q, h.Clock.Now()),
	}
	if cur, ok := q.Current(); ok {
		resp.Current = &cur.ID
	}
	c.JSON(http.StatusOK, resp)
}
