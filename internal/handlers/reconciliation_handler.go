package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"trade-reconciliation-backend/internal/report"
	service "trade-reconciliation-backend/internal/services/reconciliation"
)

type ReconciliationHandler struct {
	service *service.ReconciliationService
}

func NewReconciliationHandler(s *service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{service: s}
}

// GetReport runs a reconciliation over the requested window and returns the
// classified records, optionally filtered by status, as JSON or CSV.
func (h *ReconciliationHandler) GetReport(c *gin.Context) {
	start, end, err := parseWindow(c.Query("start"), c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rep, err := h.service.RunWindow(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	records := service.FilterByStatus(rep.Records, c.Query("status"))

	if c.Query("format") == "csv" {
		filename := fmt.Sprintf("reconciliation_%s_%s.csv", rep.WindowStart, rep.WindowEnd)
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", "attachment; filename="+filename)
		if err := report.WriteCSV(c.Writer, records); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write CSV"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"window_start":      rep.WindowStart,
		"window_end":        rep.WindowEnd,
		"records":           records,
		"summary":           rep.Summary,
		"rejected_bank":     rep.RejectedBank,
		"rejected_exchange": rep.RejectedExchange,
	})
}

// parseWindow validates a YYYY-MM-DD date range.
func parseWindow(startStr, endStr string) (time.Time, time.Time, error) {
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("both start and end are required (YYYY-MM-DD)")
	}
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date format: use YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date format: use YYYY-MM-DD")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end cannot be before start")
	}
	return start, end, nil
}
