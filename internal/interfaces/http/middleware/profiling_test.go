package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestResourceFromRoute(t *testing.T) {
	tests := map[string]string{
		"/api/v1/production/runs/:id/complete":        "production.runs",
		"/api/v1/production/materials/batches":        "production.materials",
		"/api/v1/production/recipes/:id/availability": "production.recipes",
		"/health": "health",
		"":        "",
	}
	for route, want := range tests {
		assert.Equal(t, want, resourceFromRoute(route), route)
	}
}

func TestProfiling_RunsHandler(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		called := 0
		r := gin.New()
		r.Use(Profiling(enabled, "/health"))
		r.GET("/api/v1/production/runs/:id", func(c *gin.Context) {
			called++
			c.Status(http.StatusOK)
		})
		r.GET("/health", func(c *gin.Context) {
			called++
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/production/runs/42", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, 2, called)
	}
}

func TestIsVersionSegment(t *testing.T) {
	assert.True(t, isVersionSegment("v1"))
	assert.True(t, isVersionSegment("V12"))
	assert.False(t, isVersionSegment("v"))
	assert.False(t, isVersionSegment("vx"))
	assert.False(t, isVersionSegment("production"))
}
