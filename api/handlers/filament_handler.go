package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devadigapratham/printeta/api/models"
)

// CreateFilament registers a spool. Remaining weight defaults to the total.
func (h *Handler) CreateFilament(c *gin.Context) {
	var spool models.Filament
	if err := c.ShouldBindJSON(&spool); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := spool.Normalize(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if spool.ID == "" {
		spool.ID = uuid.NewString()
	}

	if err := h.apply(&models.Command{Type: models.AddFilament, Filament: &spool}); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, spool)
}

// GetFilaments lists every spool
func (h *Handler) GetFilaments(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.Filaments())
}
