package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-ops/rims-api/internal/models"
	"github.com/campus-ops/rims-api/internal/service"
	appErrors "github.com/campus-ops/rims-api/pkg/errors"
	"github.com/campus-ops/rims-api/pkg/response"
)

// BookingHandler exposes facility booking endpoints.
type BookingHandler struct {
	bookings *service.BookingService
}

// NewBookingHandler constructs BookingHandler.
func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// Create godoc
// @Summary Submit a facility booking request
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body models.CreateBookingRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope "Dates overlap an approved booking"
// @Security BearerAuth
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	created, err := h.bookings.Create(c.Request.Context(), req, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// MyRequests godoc
// @Summary List the caller's booking requests
// @Tags Bookings
// @Produce json
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /bookings/my-requests [get]
func (h *BookingHandler) MyRequests(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	items, pagination, err := h.bookings.MyRequests(c.Request.Context(), identity, queryInt(c, "page", 1))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// ListAll godoc
// @Summary List every booking request
// @Tags Bookings
// @Produce json
// @Param status query string false "Filter by request status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /bookings [get]
func (h *BookingHandler) ListAll(c *gin.Context) {
	items, pagination, err := h.bookings.ListAll(c.Request.Context(),
		models.RequestStatus(c.Query("status")), queryInt(c, "page", 1), queryInt(c, "limit", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Review godoc
// @Summary Approve or reject a batch of booking requests
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body models.BulkStatusRequest true "Ids and target status"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope "An approval would overlap an existing booking"
// @Security BearerAuth
// @Router /bookings/review [patch]
func (h *BookingHandler) Review(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req models.BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	updated, err := h.bookings.Review(c.Request.Context(), req, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated_ids": updated}, nil)
}

// BulkDelete godoc
// @Summary Remove a batch of booking requests
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body models.BulkDeleteRequest true "Booking ids"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /bookings/bulk-delete [post]
func (h *BookingHandler) BulkDelete(c *gin.Context) {
	var req models.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	n, err := h.bookings.BulkDelete(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": n}, nil)
}

// DeleteOwn godoc
// @Summary Withdraw the caller's own booking requests
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body models.BulkDeleteRequest true "Booking ids"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /bookings/my-requests [delete]
func (h *BookingHandler) DeleteOwn(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req models.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	n, err := h.bookings.DeleteOwn(c.Request.Context(), req, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": n}, nil)
}

// MarkDone godoc
// @Summary Report a booked facility as vacated
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body models.MarkDoneRequest true "Booking ids"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /bookings/done [post]
func (h *BookingHandler) MarkDone(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req models.MarkDoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	claims, err := h.bookings.MarkDone(c.Request.Context(), req, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, claims)
}

// DoneClaims godoc
// @Summary List completion claims awaiting confirmation
// @Tags Bookings
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /bookings/done-claims [get]
func (h *BookingHandler) DoneClaims(c *gin.Context) {
	claims, err := h.bookings.ListDoneClaims(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, claims, nil)
}

// ConfirmDone godoc
// @Summary Confirm a reported booking completion
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body models.ConfirmDoneRequest true "Claim id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /bookings/done-claims/confirm [patch]
func (h *BookingHandler) ConfirmDone(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req models.ConfirmDoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	if err := h.bookings.ConfirmDone(c.Request.Context(), req, identity); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "completion confirmed"}, nil)
}

// DismissDone godoc
// @Summary Dismiss a reported booking completion
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body models.DismissDoneRequest true "Claim id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /bookings/done-claims/dismiss [patch]
func (h *BookingHandler) DismissDone(c *gin.Context) {
	var req models.DismissDoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	if err := h.bookings.DismissDone(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "claim dismissed"}, nil)
}
