package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRouter(seen *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping", func(c *gin.Context) {
		*seen = Value(c)
		c.Status(http.StatusOK)
	})
	return r
}

func TestGeneratesIDWhenMissing(t *testing.T) {
	var seen string
	r := newRouter(&seen)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if seen == "" {
		t.Fatalf("expected a request ID in the handler context")
	}
	if got := w.Header().Get("X-Request-ID"); got != seen {
		t.Fatalf("response header %q does not match context value %q", got, seen)
	}
}

func TestKeepsWellFormedInboundID(t *testing.T) {
	var seen string
	r := newRouter(&seen)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "gateway-7f3a.42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if seen != "gateway-7f3a.42" {
		t.Fatalf("inbound ID was replaced, got %q", seen)
	}
}

func TestReplacesMalformedInboundID(t *testing.T) {
	cases := map[string]string{
		"control chars": "abc\ndef",
		"too long":      strings.Repeat("x", 65),
		"spaces":        "not a token",
	}
	for name, inbound := range cases {
		t.Run(name, func(t *testing.T) {
			var seen string
			r := newRouter(&seen)

			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.Header.Set("X-Request-ID", inbound)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if seen == inbound || seen == "" {
				t.Fatalf("malformed inbound ID %q was not replaced", inbound)
			}
		})
	}
}
