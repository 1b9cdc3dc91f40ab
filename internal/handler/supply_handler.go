package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campus-ops/rims-api/internal/models"
	"github.com/campus-ops/rims-api/internal/repository"
	"github.com/campus-ops/rims-api/internal/service"
	appErrors "github.com/campus-ops/rims-api/pkg/errors"
	"github.com/campus-ops/rims-api/pkg/response"
)

// SupplyHandler exposes supply catalog endpoints.
type SupplyHandler struct {
	supplies *service.SupplyService
	logs     *service.LogService
}

// NewSupplyHandler constructs SupplyHandler.
func NewSupplyHandler(supplies *service.SupplyService, logs *service.LogService) *SupplyHandler {
	return &SupplyHandler{supplies: supplies, logs: logs}
}

// List godoc
// @Summary List supplies
// @Tags Supplies
// @Produce json
// @Param category query string false "Filter by category"
// @Param search query string false "Search by name"
// @Param low_stock query bool false "Only items at or below their stocking point"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /supplies [get]
func (h *SupplyHandler) List(c *gin.Context) {
	filter := repository.SupplyFilter{
		Category: c.Query("category"),
		Search:   strings.TrimSpace(c.Query("search")),
		LowStock: c.Query("low_stock") == "true",
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "limit", 0),
	}

	items, pagination, err := h.supplies.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get one supply item
// @Tags Supplies
// @Produce json
// @Param id path int true "Supply ID"
// @Success 200 {object} response.Envelope
// @Router /supplies/{id} [get]
func (h *SupplyHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	item, err := h.supplies.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Add a supply item
// @Tags Supplies
// @Accept json
// @Produce json
// @Param payload body models.Supply true "Supply payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /supplies [post]
func (h *SupplyHandler) Create(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var item models.Supply
	if err := c.ShouldBindJSON(&item); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	if err := h.supplies.Create(c.Request.Context(), &item, identity); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update a supply item
// @Tags Supplies
// @Accept json
// @Produce json
// @Param id path int true "Supply ID"
// @Param payload body models.Supply true "Supply payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /supplies/{id} [put]
func (h *SupplyHandler) Update(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var item models.Supply
	if err := c.ShouldBindJSON(&item); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	item.ID = id

	if err := h.supplies.Update(c.Request.Context(), &item, identity); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// BulkDelete godoc
// @Summary Remove a batch of supply items
// @Tags Supplies
// @Accept json
// @Produce json
// @Param payload body models.BulkDeleteRequest true "Supply ids"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /supplies/bulk-delete [post]
func (h *SupplyHandler) BulkDelete(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req models.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	n, err := h.supplies.BulkDelete(c.Request.Context(), req.IDs, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": n}, nil)
}

// UploadImage godoc
// @Summary Attach an image to a supply item
// @Tags Supplies
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Supply ID"
// @Param image formData file true "Image file"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /supplies/{id}/image [post]
func (h *SupplyHandler) UploadImage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "image file is required"))
		return
	}
	if file.Size > maxUploadBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "image exceeds the size limit"))
		return
	}

	src, err := file.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer src.Close() //nolint:errcheck

	stored, err := h.supplies.UploadImage(c.Request.Context(), id, file.Filename, src)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"image": stored}, nil)
}

// ExportCSV godoc
// @Summary Export the supply catalog as CSV
// @Tags Supplies
// @Produce text/csv
// @Success 200
// @Security BearerAuth
// @Router /supplies/export/csv [get]
func (h *SupplyHandler) ExportCSV(c *gin.Context) {
	payload, err := h.supplies.ExportCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Download(c, payload, "text/csv", fmt.Sprintf("supplies_%s.csv", time.Now().UTC().Format("20060102")))
}

// Logs godoc
// @Summary List the supply audit trail
// @Tags Supplies
// @Produce json
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /supply-logs [get]
func (h *SupplyHandler) Logs(c *gin.Context) {
	logs, pagination, err := h.logs.List(c.Request.Context(), models.AuditSupply, queryInt(c, "page", 1))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, pagination)
}
