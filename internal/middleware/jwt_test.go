package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/campus-ops/rims-api/internal/models"
	"github.com/campus-ops/rims-api/internal/service"
)

const testSecret = "test-secret"

func testAuthService() *service.AuthService {
	return service.NewAuthService(nil, nil, nil, service.AuthConfig{
		AccessTokenSecret:  testSecret,
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: time.Hour,
	})
}

func signToken(t *testing.T, claims *models.JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func protectedRouter(handlers ...gin.HandlerFunc) (*gin.Engine, *models.Identity) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	var seen models.Identity
	chain := append(handlers, func(c *gin.Context) {
		identity, _ := IdentityFrom(c)
		seen = identity
		c.Status(http.StatusNoContent)
	})
	router.GET("/", chain...)
	return router, &seen
}

func TestJWTAllowsApprovedUser(t *testing.T) {
	router, seen := protectedRouter(JWT(testAuthService()))
	token := signToken(t, &models.JWTClaims{
		UserID:   5,
		Email:    "staff@example.edu",
		Role:     models.RoleEmployee,
		Approved: true,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if seen.UserID != 5 || seen.Role != models.RoleEmployee {
		t.Fatalf("unexpected identity: %+v", seen)
	}
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	router, _ := protectedRouter(JWT(testAuthService()))

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	router, _ := protectedRouter(JWT(testAuthService()))

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	router, _ := protectedRouter(JWT(testAuthService()))
	token := signToken(t, &models.JWTClaims{
		UserID:   5,
		Approved: true,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestJWTRejectsUnapprovedAccount(t *testing.T) {
	router, _ := protectedRouter(JWT(testAuthService()))
	token := signToken(t, &models.JWTClaims{
		UserID:   5,
		Approved: false,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "ACCOUNT_PENDING") {
		t.Fatalf("expected pending-account error, got: %s", recorder.Body.String())
	}
}
