package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campus-ops/rims-api/internal/middleware"
	"github.com/campus-ops/rims-api/internal/models"
	appErrors "github.com/campus-ops/rims-api/pkg/errors"
	"github.com/campus-ops/rims-api/pkg/response"
)

// currentIdentity pulls the verified caller off the context, answering 401
// when the auth middleware did not run.
func currentIdentity(c *gin.Context) (models.Identity, bool) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
	}
	return identity, ok
}

// pathID parses a numeric path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid id"))
		return 0, false
	}
	return id, true
}

// queryInt parses an integer query parameter with a fallback.
func queryInt(c *gin.Context, name string, fallback int) int {
	if v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(fallback))); err == nil {
		return v
	}
	return fallback
}
