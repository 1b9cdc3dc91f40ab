package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campus-ops/rims-api/internal/models"
	"github.com/campus-ops/rims-api/internal/service"
	appErrors "github.com/campus-ops/rims-api/pkg/errors"
	"github.com/campus-ops/rims-api/pkg/response"
)

// UserHandler exposes user administration endpoints.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List godoc
// @Summary List user accounts
// @Tags Users
// @Produce json
// @Param role query string false "Filter by role"
// @Param approved query bool false "Filter by approval state"
// @Param search query string false "Search by name or email"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	filter := models.UserFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "limit", 0),
	}
	if role := c.Query("role"); role != "" {
		r := models.UserRole(role)
		filter.Role = &r
	}
	if approved := c.Query("approved"); approved != "" {
		v := approved == "true"
		filter.Approved = &v
	}

	users, pagination, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// Get godoc
// @Summary Get one user account
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Update godoc
// @Summary Update a user's profile or role
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param payload body service.UpdateUserRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	user, err := h.users.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// BulkDelete godoc
// @Summary Remove a batch of user accounts
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body models.BulkDeleteRequest true "User ids"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /users/bulk-delete [post]
func (h *UserHandler) BulkDelete(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req models.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	n, err := h.users.DeleteBatch(c.Request.Context(), req.IDs, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": n}, nil)
}

// AccountRequests godoc
// @Summary List pending account requests
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /account-requests [get]
func (h *UserHandler) AccountRequests(c *gin.Context) {
	requests, err := h.users.ListAccountRequests(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

type resolveAccountRequestBody struct {
	Role models.UserRole `json:"role"`
}

// ApproveAccountRequest godoc
// @Summary Approve an account request
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "Account request ID"
// @Param payload body resolveAccountRequestBody false "Role to grant, defaults to the requested role"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /account-requests/{id}/approve [patch]
func (h *UserHandler) ApproveAccountRequest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var body resolveAccountRequestBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
			return
		}
	}

	err := h.users.ResolveAccountRequest(c.Request.Context(), id, service.ResolveAccountRequestInput{
		Approve: true,
		Role:    body.Role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "account approved"}, nil)
}

// RejectAccountRequest godoc
// @Summary Reject an account request
// @Tags Users
// @Produce json
// @Param id path int true "Account request ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /account-requests/{id}/reject [patch]
func (h *UserHandler) RejectAccountRequest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.users.ResolveAccountRequest(c.Request.Context(), id, service.ResolveAccountRequestInput{}); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "account rejected"}, nil)
}

// DeleteAccountRequest godoc
// @Summary Delete an account request record
// @Tags Users
// @Produce json
// @Param id path int true "Account request ID"
// @Success 204
// @Security BearerAuth
// @Router /account-requests/{id} [delete]
func (h *UserHandler) DeleteAccountRequest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.users.DeleteAccountRequest(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
