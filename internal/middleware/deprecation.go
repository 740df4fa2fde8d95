package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// DeprecationConfig configures the Deprecation middleware
type DeprecationConfig struct {
	// Sunset is the removal date in RFC 1123 format (optional)
	Sunset string
	// Successor is the route clients should move to, e.g. "/api/profile"
	Successor string
}

// Deprecation marks an alias route with standard deprecation headers.
// See: https://datatracker.ietf.org/doc/html/draft-ietf-httpapi-deprecation-header
func Deprecation(cfg DeprecationConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Deprecation", "true")
		if cfg.Sunset != "" {
			c.Header("Sunset", cfg.Sunset)
		}
		if cfg.Successor != "" {
			c.Header("Link", fmt.Sprintf(`<%s>; rel="successor-version"`, cfg.Successor))
		}
		c.Next()
	}
}
