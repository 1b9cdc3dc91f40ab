package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-ops/rims-api/internal/models"
	"github.com/campus-ops/rims-api/internal/service"
	appErrors "github.com/campus-ops/rims-api/pkg/errors"
	"github.com/campus-ops/rims-api/pkg/response"
)

// BorrowingHandler exposes equipment borrowing endpoints.
type BorrowingHandler struct {
	borrowings *service.BorrowingService
}

// NewBorrowingHandler constructs BorrowingHandler.
func NewBorrowingHandler(borrowings *service.BorrowingService) *BorrowingHandler {
	return &BorrowingHandler{borrowings: borrowings}
}

// Create godoc
// @Summary Submit a borrowing request
// @Tags Borrowings
// @Accept json
// @Produce json
// @Param payload body models.CreateBorrowingRequest true "Borrowing payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /borrowings [post]
func (h *BorrowingHandler) Create(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req models.CreateBorrowingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	created, err := h.borrowings.Create(c.Request.Context(), req, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// MyRequests godoc
// @Summary List the caller's borrowing requests
// @Tags Borrowings
// @Produce json
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /borrowings/my-requests [get]
func (h *BorrowingHandler) MyRequests(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	items, pagination, err := h.borrowings.MyRequests(c.Request.Context(), identity, queryInt(c, "page", 1))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// ListAll godoc
// @Summary List every borrowing request
// @Tags Borrowings
// @Produce json
// @Param status query string false "Filter by request status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /borrowings [get]
func (h *BorrowingHandler) ListAll(c *gin.Context) {
	items, pagination, err := h.borrowings.ListAll(c.Request.Context(),
		models.RequestStatus(c.Query("status")), queryInt(c, "page", 1), queryInt(c, "limit", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Review godoc
// @Summary Approve or reject a batch of borrowing requests
// @Tags Borrowings
// @Accept json
// @Produce json
// @Param payload body models.BulkStatusRequest true "Ids and target status"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /borrowings/review [patch]
func (h *BorrowingHandler) Review(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req models.BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	updated, err := h.borrowings.Review(c.Request.Context(), req, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated_ids": updated}, nil)
}

// BulkDelete godoc
// @Summary Remove a batch of borrowing requests
// @Tags Borrowings
// @Accept json
// @Produce json
// @Param payload body models.BulkDeleteRequest true "Borrowing ids"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /borrowings/bulk-delete [post]
func (h *BorrowingHandler) BulkDelete(c *gin.Context) {
	var req models.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	n, err := h.borrowings.BulkDelete(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": n}, nil)
}

// DeleteOwn godoc
// @Summary Withdraw the caller's own borrowing requests
// @Tags Borrowings
// @Accept json
// @Produce json
// @Param payload body models.BulkDeleteRequest true "Borrowing ids"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /borrowings/my-requests [delete]
func (h *BorrowingHandler) DeleteOwn(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req models.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	n, err := h.borrowings.DeleteOwn(c.Request.Context(), req, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": n}, nil)
}

// MarkReturned godoc
// @Summary Report borrowed equipment as returned
// @Tags Borrowings
// @Accept json
// @Produce json
// @Param payload body models.MarkReturnedRequest true "Borrowing ids and receiver"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /borrowings/return [post]
func (h *BorrowingHandler) MarkReturned(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req models.MarkReturnedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	claims, err := h.borrowings.MarkReturned(c.Request.Context(), req, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, claims)
}

// ReturnClaims godoc
// @Summary List return claims awaiting confirmation
// @Tags Borrowings
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /borrowings/return-claims [get]
func (h *BorrowingHandler) ReturnClaims(c *gin.Context) {
	claims, err := h.borrowings.ListReturnClaims(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, claims, nil)
}

// ConfirmReturn godoc
// @Summary Confirm a reported return
// @Tags Borrowings
// @Accept json
// @Produce json
// @Param payload body models.ConfirmReturnRequest true "Claim id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /borrowings/return-claims/confirm [patch]
func (h *BorrowingHandler) ConfirmReturn(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req models.ConfirmReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	if err := h.borrowings.ConfirmReturn(c.Request.Context(), req, identity); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "return confirmed"}, nil)
}

// RejectReturn godoc
// @Summary Reject a reported return
// @Tags Borrowings
// @Accept json
// @Produce json
// @Param payload body models.RejectReturnRequest true "Claim id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /borrowings/return-claims/reject [patch]
func (h *BorrowingHandler) RejectReturn(c *gin.Context) {
	var req models.RejectReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	if err := h.borrowings.RejectReturn(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "return rejected"}, nil)
}
