package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-ops/rims-api/internal/service"
	"github.com/campus-ops/rims-api/pkg/response"
)

// DashboardHandler exposes dashboard rollup endpoints.
type DashboardHandler struct {
	dashboard *service.DashboardService
	metrics   *service.MetricsService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService, metrics *service.MetricsService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, metrics: metrics}
}

// Stats godoc
// @Summary Headline counts across the whole inventory
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// ByCategory godoc
// @Summary Equipment counts grouped by category
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard/equipment/by-category [get]
func (h *DashboardHandler) ByCategory(c *gin.Context) {
	groups, err := h.dashboard.EquipmentByCategory(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// ByStatus godoc
// @Summary Equipment counts grouped by recorded condition
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard/equipment/by-status [get]
func (h *DashboardHandler) ByStatus(c *gin.Context) {
	groups, err := h.dashboard.EquipmentByStatus(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// ByPersonLiable godoc
// @Summary Equipment counts grouped by the person liable
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard/equipment/by-person-liable [get]
func (h *DashboardHandler) ByPersonLiable(c *gin.Context) {
	groups, err := h.dashboard.EquipmentByPersonLiable(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// ByFacility godoc
// @Summary Equipment counts grouped by home facility
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard/equipment/by-facility [get]
func (h *DashboardHandler) ByFacility(c *gin.Context) {
	groups, err := h.dashboard.EquipmentByFacility(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// Availability godoc
// @Summary Equipment availability breakdown with percentages
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard/equipment/availability [get]
func (h *DashboardHandler) Availability(c *gin.Context) {
	slices, err := h.dashboard.AvailabilityBreakdown(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slices, nil)
}

// Sidebar godoc
// @Summary Per-module record counts for navigation badges
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard/sidebar [get]
func (h *DashboardHandler) Sidebar(c *gin.Context) {
	counts, err := h.dashboard.SidebarCounts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}

// System godoc
// @Summary Runtime metrics snapshot for the admin dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard/system [get]
func (h *DashboardHandler) System(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
