package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campus-ops/rims-api/internal/models"
	"github.com/campus-ops/rims-api/internal/repository"
	"github.com/campus-ops/rims-api/internal/service"
	appErrors "github.com/campus-ops/rims-api/pkg/errors"
	"github.com/campus-ops/rims-api/pkg/response"
)

// FacilityHandler exposes facility catalog endpoints.
type FacilityHandler struct {
	facilities *service.FacilityService
	logs       *service.LogService
}

// NewFacilityHandler constructs FacilityHandler.
func NewFacilityHandler(facilities *service.FacilityService, logs *service.LogService) *FacilityHandler {
	return &FacilityHandler{facilities: facilities, logs: logs}
}

// List godoc
// @Summary List facilities with derived occupancy
// @Tags Facilities
// @Produce json
// @Param type query string false "Filter by facility type"
// @Param building query string false "Filter by building"
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /facilities [get]
func (h *FacilityHandler) List(c *gin.Context) {
	filter := repository.FacilityFilter{
		Type:     c.Query("type"),
		Building: c.Query("building"),
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "limit", 0),
	}

	items, pagination, err := h.facilities.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get one facility
// @Tags Facilities
// @Produce json
// @Param id path int true "Facility ID"
// @Success 200 {object} response.Envelope
// @Router /facilities/{id} [get]
func (h *FacilityHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	item, err := h.facilities.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Add a facility
// @Tags Facilities
// @Accept json
// @Produce json
// @Param payload body models.Facility true "Facility payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /facilities [post]
func (h *FacilityHandler) Create(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var item models.Facility
	if err := c.ShouldBindJSON(&item); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	if err := h.facilities.Create(c.Request.Context(), &item, identity); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update a facility
// @Tags Facilities
// @Accept json
// @Produce json
// @Param id path int true "Facility ID"
// @Param payload body models.Facility true "Facility payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /facilities/{id} [put]
func (h *FacilityHandler) Update(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var item models.Facility
	if err := c.ShouldBindJSON(&item); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	item.ID = id

	if err := h.facilities.Update(c.Request.Context(), &item, identity); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// BulkDelete godoc
// @Summary Remove a batch of facilities
// @Tags Facilities
// @Accept json
// @Produce json
// @Param payload body models.BulkDeleteRequest true "Facility ids"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /facilities/bulk-delete [post]
func (h *FacilityHandler) BulkDelete(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req models.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	n, err := h.facilities.BulkDelete(c.Request.Context(), req.IDs, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": n}, nil)
}

// UploadImage godoc
// @Summary Attach an image to a facility
// @Tags Facilities
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Facility ID"
// @Param image formData file true "Image file"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /facilities/{id}/image [post]
func (h *FacilityHandler) UploadImage(c *gin.Context) {
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

	stored, err := h.facilities.UploadImage(c.Request.Context(), id, file.Filename, src)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"image": stored}, nil)
}

// Logs godoc
// @Summary List the facility audit trail
// @Tags Facilities
// @Produce json
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /facility-logs [get]
func (h *FacilityHandler) Logs(c *gin.Context) {
	logs, pagination, err := h.logs.List(c.Request.Context(), models.AuditFacility, queryInt(c, "page", 1))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, pagination)
}
