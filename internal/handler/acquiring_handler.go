package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-ops/rims-api/internal/models"
	"github.com/campus-ops/rims-api/internal/service"
	appErrors "github.com/campus-ops/rims-api/pkg/errors"
	"github.com/campus-ops/rims-api/pkg/response"
)

// AcquiringHandler exposes supply acquiring endpoints.
type AcquiringHandler struct {
	acquirings *service.AcquiringService
}

// NewAcquiringHandler constructs AcquiringHandler.
func NewAcquiringHandler(acquirings *service.AcquiringService) *AcquiringHandler {
	return &AcquiringHandler{acquirings: acquirings}
}

// Create godoc
// @Summary Submit a supply acquiring request
// @Tags Acquirings
// @Accept json
// @Produce json
// @Param payload body models.CreateAcquiringRequest true "Acquiring payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /acquirings [post]
func (h *AcquiringHandler) Create(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req models.CreateAcquiringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	created, err := h.acquirings.Create(c.Request.Context(), req, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// MyRequests godoc
// @Summary List the caller's acquiring requests
// @Tags Acquirings
// @Produce json
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /acquirings/my-requests [get]
func (h *AcquiringHandler) MyRequests(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	items, pagination, err := h.acquirings.MyRequests(c.Request.Context(), identity, queryInt(c, "page", 1))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// ListAll godoc
// @Summary List every acquiring request
// @Tags Acquirings
// @Produce json
// @Param status query string false "Filter by request status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /acquirings [get]
func (h *AcquiringHandler) ListAll(c *gin.Context) {
	items, pagination, err := h.acquirings.ListAll(c.Request.Context(),
		models.RequestStatus(c.Query("status")), queryInt(c, "page", 1), queryInt(c, "limit", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Review godoc
// @Summary Approve or reject a batch of acquiring requests
// @Tags Acquirings
// @Accept json
// @Produce json
// @Param payload body models.BulkStatusRequest true "Ids and target status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope "A supply lacks stock to cover an approval"
// @Security BearerAuth
// @Router /acquirings/review [patch]
func (h *AcquiringHandler) Review(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req models.BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	updated, err := h.acquirings.Review(c.Request.Context(), req, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated_ids": updated}, nil)
}

// BulkDelete godoc
// @Summary Remove a batch of acquiring requests
// @Tags Acquirings
// @Accept json
// @Produce json
// @Param payload body models.BulkDeleteRequest true "Acquiring ids"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /acquirings/bulk-delete [post]
func (h *AcquiringHandler) BulkDelete(c *gin.Context) {
	var req models.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	n, err := h.acquirings.BulkDelete(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": n}, nil)
}

// DeleteOwn godoc
// @Summary Withdraw the caller's own acquiring requests
// @Tags Acquirings
// @Accept json
// @Produce json
// @Param payload body models.BulkDeleteRequest true "Acquiring ids"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /acquirings/my-requests [delete]
func (h *AcquiringHandler) DeleteOwn(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req models.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	n, err := h.acquirings.DeleteOwn(c.Request.Context(), req, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": n}, nil)
}
