package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/grafana/pyroscope-go"
)

// Pyroscope label names
const (
	ProfilingLabelRoute    = "route"
	ProfilingLabelMethod   = "method"
	ProfilingLabelResource = "resource"
	ProfilingLabelTenantID = "tenant_id"
)

// Profiling tags the CPU samples of each request with the route pattern, the
// method, the API resource and the tenant, so Pyroscope can slice profiles by
// endpoint. Unmatched routes and the skip list run untagged.
func Profiling(enabled bool, skipPaths ...string) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || hasAnyPrefix(c.Request.URL.Path, skipPaths) {
			c.Next()
			return
		}
		pyroscope.TagWrapper(c.Request.Context(), pyroscope.Labels(profilingLabels(c, route)...), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func profilingLabels(c *gin.Context, route string) []string {
	labels := []string{
		ProfilingLabelMethod, c.Request.Method,
		ProfilingLabelRoute, route,
	}
	if res := resourceFromRoute(route); res != "" {
		labels = append(labels, ProfilingLabelResource, res)
	}
	if tenant := GetTenantID(c); tenant != "" {
		labels = append(labels, ProfilingLabelTenantID, tenant)
	}
	return labels
}

// resourceFromRoute returns up to two static segments after the API prefix:
// "/api/v1/production/runs/:id/complete" gives "production.runs".
func resourceFromRoute(route string) string {
	parts := make([]string, 0, 2)
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) {
			continue
		}
		if strings.HasPrefix(part, ":") || len(parts) == 2 {
			break
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ".")
}

func isVersionSegment(s string) bool {
	if len(s) < 2 || (s[0] != 'v' && s[0] != 'V') {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
