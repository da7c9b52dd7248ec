package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chainwatch/chainwatch/pkg/models"
	"github.com/chainwatch/chainwatch/pkg/store"
)

const defaultListLimit = 50

// ListAlerts handles GET /api/v1/alerts.
func (s *Server) ListAlerts(c *gin.Context) {
	filter := store.AlertFilter{Limit: defaultListLimit}

	if v := c.Query("severity"); v != "" {
		switch band := models.SeverityBand(v); band {
		case models.BandCritical, models.BandHigh, models.BandMedium, models.BandLow:
			filter.SeverityBand = band
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid severity: must be critical, high, medium, or low"})
			return
		}
	}

	if v := c.Query("acknowledged"); v != "" {
		ack, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid acknowledged: must be true or false"})
			return
		}
		filter.Acknowledged = &ack
	}

	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit: must be in 1..500"})
			return
		}
		filter.Limit = n
	}

	alerts, err := s.store.ListAlerts(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if alerts == nil {
		alerts = []*models.Alert{}
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}

// GetAlert handles GET /api/v1/alerts/:id.
func (s *Server) GetAlert(c *gin.Context) {
	alert, err := s.store.GetAlert(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, alert)
}

// AcknowledgeRequest is the body for POST /api/v1/alerts/:id/acknowledge.
type AcknowledgeRequest struct {
	AcknowledgedBy string `json:"acknowledged_by" binding:"required"`
}

// AcknowledgeAlert handles POST /api/v1/alerts/:id/acknowledge.
func (s *Server) AcknowledgeAlert(c *gin.Context) {
	var req AcknowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alert, err := s.store.AcknowledgeAlert(c.Request.Context(), c.Param("id"), req.AcknowledgedBy)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, alert)
}

// ListSuppliers handles GET /api/v1/suppliers.
func (s *Server) ListSuppliers(c *gin.Context) {
	suppliers, err := s.store.ListSuppliers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if suppliers == nil {
		suppliers = []*models.Supplier{}
	}
	c.JSON(http.StatusOK, gin.H{"suppliers": suppliers, "count": len(suppliers)})
}

// GetSupplier handles GET /api/v1/suppliers/:id.
func (s *Server) GetSupplier(c *gin.Context) {
	supplier, err := s.store.GetSupplier(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "supplier not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, supplier)
}

// SupplierHistory handles GET /api/v1/suppliers/:id/history.
func (s *Server) SupplierHistory(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	// 404 for unknown suppliers rather than an empty history.
	if _, err := s.store.GetSupplier(ctx, id); errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "supplier not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	limit := defaultListLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit: must be in 1..500"})
			return
		}
		limit = n
	}

	history, err := s.store.SupplierRiskHistory(ctx, id, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if history == nil {
		history = []store.RiskScoreSample{}
	}
	c.JSON(http.StatusOK, gin.H{"supplier_id": id, "history": history})
}

// Summary handles GET /api/v1/summary.
func (s *Server) Summary(c *gin.Context) {
	summary, err := s.store.Summary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}
