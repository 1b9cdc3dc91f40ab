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

const maxUploadBytes = 5 << 20

// EquipmentHandler exposes equipment catalog endpoints.
type EquipmentHandler struct {
	equipment *service.EquipmentService
	logs      *service.LogService
}

// NewEquipmentHandler constructs EquipmentHandler.
func NewEquipmentHandler(equipment *service.EquipmentService, logs *service.LogService) *EquipmentHandler {
	return &EquipmentHandler{equipment: equipment, logs: logs}
}

// List godoc
// @Summary List equipment with derived availability
// @Tags Equipment
// @Produce json
// @Param category query string false "Filter by category"
// @Param status query string false "Filter by recorded condition"
// @Param search query string false "Search by name or brand"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /equipments [get]
func (h *EquipmentHandler) List(c *gin.Context) {
	filter := repository.EquipmentFilter{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "limit", 0),
	}

	items, pagination, err := h.equipment.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get one equipment item
// @Tags Equipment
// @Produce json
// @Param id path int true "Equipment ID"
// @Success 200 {object} response.Envelope
// @Router /equipments/{id} [get]
func (h *EquipmentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	item, err := h.equipment.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Add an equipment item
// @Tags Equipment
// @Accept json
// @Produce json
// @Param payload body models.Equipment true "Equipment payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /equipments [post]
func (h *EquipmentHandler) Create(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var item models.Equipment
	if err := c.ShouldBindJSON(&item); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	if err := h.equipment.Create(c.Request.Context(), &item, identity); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update an equipment item
// @Tags Equipment
// @Accept json
// @Produce json
// @Param id path int true "Equipment ID"
// @Param payload body models.Equipment true "Equipment payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /equipments/{id} [put]
func (h *EquipmentHandler) Update(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var item models.Equipment
	if err := c.ShouldBindJSON(&item); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	item.ID = id

	if err := h.equipment.Update(c.Request.Context(), &item, identity); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// BulkDelete godoc
// @Summary Remove a batch of equipment items
// @Tags Equipment
// @Accept json
// @Produce json
// @Param payload body models.BulkDeleteRequest true "Equipment ids"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /equipments/bulk-delete [post]
func (h *EquipmentHandler) BulkDelete(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req models.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	n, err := h.equipment.BulkDelete(c.Request.Context(), req.IDs, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": n}, nil)
}

// UploadImage godoc
// @Summary Attach an image to an equipment item
// @Tags Equipment
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Equipment ID"
// @Param image formData file true "Image file"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /equipments/{id}/image [post]
func (h *EquipmentHandler) UploadImage(c *gin.Context) {
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

	stored, err := h.equipment.UploadImage(c.Request.Context(), id, file.Filename, src)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"image": stored}, nil)
}

// Categories godoc
// @Summary List distinct equipment categories
// @Tags Equipment
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /equipments/categories [get]
func (h *EquipmentHandler) Categories(c *gin.Context) {
	categories, err := h.equipment.Categories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories, nil)
}

// ExportCSV godoc
// @Summary Export the equipment catalog as CSV
// @Tags Equipment
// @Produce text/csv
// @Success 200
// @Security BearerAuth
// @Router /equipments/export/csv [get]
func (h *EquipmentHandler) ExportCSV(c *gin.Context) {
	payload, err := h.equipment.ExportCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Download(c, payload, "text/csv", fmt.Sprintf("equipment_%s.csv", time.Now().UTC().Format("20060102")))
}

// ExportPDF godoc
// @Summary Export the equipment catalog as PDF
// @Tags Equipment
// @Produce application/pdf
// @Success 200
// @Security BearerAuth
// @Router /equipments/export/pdf [get]
func (h *EquipmentHandler) ExportPDF(c *gin.Context) {
	payload, err := h.equipment.ExportPDF(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Download(c, payload, "application/pdf", fmt.Sprintf("equipment_%s.pdf", time.Now().UTC().Format("20060102")))
}

// Logs godoc
// @Summary List the equipment audit trail
// @Tags Equipment
// @Produce json
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /equipment-logs [get]
func (h *EquipmentHandler) Logs(c *gin.Context) {
	logs, pagination, err := h.logs.List(c.Request.Context(), models.AuditEquipment, queryInt(c, "page", 1))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, pagination)
}
