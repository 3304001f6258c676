package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	allowHeaders = "Authorization, Content-Type, X-Requested-With, X-Request-ID"
	allowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"

	// Content-Disposition must be exposed so browsers can read report
	// download filenames from cross-origin responses.
	exposeHeaders = "Content-Disposition, X-Request-ID"
)

// New returns CORS middleware restricted to the configured origins. An
// empty list allows any origin, which is the development default.
func New(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[normalize(origin)] = struct{}{}
	}
	allowAny := len(allowed) == 0

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		origin := c.GetHeader("Origin")
		switch {
		case origin == "" && allowAny:
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && allowAny:
			h.Set("Access-Control-Allow-Origin", origin)
		case origin != "":
			if _, ok := allowed[normalize(origin)]; ok {
				h.Set("Access-Control-Allow-Origin", origin)
			}
		}

		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Allow-Methods", allowMethods)
		h.Set("Access-Control-Expose-Headers", exposeHeaders)
		h.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func normalize(origin string) string {
	return strings.ToLower(strings.TrimRight(origin, "/"))
}
