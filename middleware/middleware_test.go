package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cleanly/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"actor": c.GetString(ActorIDKey), "role": c.GetString(ActorRoleKey)})
	})
	return r
}

func get(r *gin.Engine, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	req.RemoteAddr = "10.0.0.1:5555"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthMiddleware(t *testing.T) {
	r := newRouter(JWTAuthMiddleware(), RequireRole(RoleCleaner))

	tok, err := utils.GenerateToken("cleaner-1", RoleCleaner, time.Hour)
	require.NoError(t, err)
	rec := get(r, http.Header{"Authorization": {"Bearer " + tok}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"actor":"cleaner-1","role":"cleaner"}`, rec.Body.String())

	expired, err := utils.GenerateToken("cleaner-1", RoleCleaner, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, http.Header{"Authorization": {"Bearer " + expired}}).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, http.Header{"Authorization": {"Token abc"}}).Code)

	client, err := utils.GenerateToken("client-1", RoleClient, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(r, http.Header{"Authorization": {"Bearer " + client}}).Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newRouter(RateLimitMiddleware(2))

	assert.Equal(t, http.StatusOK, get(r, nil).Code)
	assert.Equal(t, http.StatusOK, get(r, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, nil).Code)

	// A different client has its own budget.
	assert.Equal(t, http.StatusOK, get(r, http.Header{"X-Forwarded-For": {"203.0.113.7, 10.0.0.1"}}).Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header http.Header
		want   string
	}{
		{name: "forwarded chain", header: http.Header{"X-Forwarded-For": {"203.0.113.7, 10.0.0.1"}}, want: "203.0.113.7"},
		{name: "real ip", header: http.Header{"X-Real-Ip": {" 198.51.100.2 "}}, want: "198.51.100.2"},
		{name: "remote addr", want: "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.RemoteAddr = "10.0.0.1:5555"
			for k, v := range tt.header {
				c.Request.Header[k] = v
			}
			assert.Equal(t, tt.want, getClientIP(c))
		})
	}
}
