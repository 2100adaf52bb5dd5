package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	revenueapp "github.com/billing/backend/internal/application/revenue"
)

// DashboardHandler serves the revenue reporting endpoints
type DashboardHandler struct {
	BaseHandler
	dashboard     *revenueapp.DashboardService
	recalculation *revenueapp.RecalculationService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboard *revenueapp.DashboardService, recalculation *revenueapp.RecalculationService) *DashboardHandler {
	return &DashboardHandler{
		dashboard:     dashboard,
		recalculation: recalculation,
	}
}

// GetRollingYearRevenue returns the 12-month revenue series ending at the
// current month. The read path degrades to a zero-valued series instead of
// failing, so this endpoint only errors on auth problems.
func (h *DashboardHandler) GetRollingYearRevenue(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	resp := h.dashboard.GetRollingYearRevenue(c.Request.Context(), tenantID)
	h.Success(c, resp)
}

// Recalculate rebuilds the tenant's monthly aggregates from the invoice
// table, replacing whatever the event projection has accumulated
func (h *DashboardHandler) Recalculate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	result, err := h.recalculation.Recalculate(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
