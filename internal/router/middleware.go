package router

import (
	"net/http"

	"vtt-go/internal/store"

	"github.com/gin-gonic/gin"
)

// ProfileRequired guards pages that need a tester identity. Without
// supervisor and tester set, the visitor is bounced to the landing form.
// This is a precondition, not an error: no status beyond the redirect.
func ProfileRequired(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.ProfileComplete() {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}
