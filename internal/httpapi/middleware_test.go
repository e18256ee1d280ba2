package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"StockTracker/internal/model"
)

func newEngine(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLog(zap.NewNop()), CORS(origins))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/fail", func(c *gin.Context) { Abort(c, http.StatusTooManyRequests, "Rate limit exceeded") })
	return r
}

func TestCORS_Preflight(t *testing.T) {
	r := newEngine([]string{"http://localhost:5173"})

	req := httptest.NewRequest(http.MethodOptions, "/ok", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestCORS_UnknownOrigin(t *testing.T) {
	r := newEngine([]string{"http://localhost:5173"})

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestOriginAllowed(t *testing.T) {
	assert.True(t, OriginAllowed(nil, ""))
	assert.True(t, OriginAllowed([]string{"*"}, "http://any.example"))
	assert.False(t, OriginAllowed([]string{"http://a"}, "http://b"))
}

func TestAbort(t *testing.T) {
	r := newEngine(nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/fail", nil))

	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	var body model.APIError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, model.APIError{Error: "Too Many Requests", Message: "Rate limit exceeded", Code: 429}, body)
}
