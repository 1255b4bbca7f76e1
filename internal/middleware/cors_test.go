package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newCORSRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS())
	r.GET("/api/networks", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestCORS_Preflight(t *testing.T) {
	r := newCORSRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/networks", nil)
	req.Header.Set("Origin", "https://wallet.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_SimpleRequest(t *testing.T) {
	r := newCORSRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/networks", nil)
	req.Header.Set("Origin", "https://wallet.example")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "Last-Modified", w.Header().Get("Access-Control-Expose-Headers"))
}
