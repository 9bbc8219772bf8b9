// Package middleware resolves the caller identity for the Gin web framework.
package middleware

import (
	"fmt"
	"strings"

	"github.com/wilforlan/suncture-feedback-board/internal/config"
	"github.com/wilforlan/suncture-feedback-board/internal/models"
	contextutils "github.com/wilforlan/suncture-feedback-board/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// IdentityKey is the gin context key holding the resolved models.Identity.
const IdentityKey = "identity"

// Identity attaches the caller identity to the request context when one is
// present. The cookie session is consulted first, then the proxy headers
// when trustHeaders is set. A request without either is anonymous and still
// proceeds.
func Identity(trustHeaders bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identityFromSession(c)
		if !ok && trustHeaders {
			id, ok = identityFromHeaders(c)
		}
		if ok {
			c.Set(IdentityKey, id)
			c.Request = c.Request.WithContext(contextutils.WithIdentity(c.Request.Context(), id))
		}
		c.Next()
	}
}

func identityFromSession(c *gin.Context) (models.Identity, bool) {
	session := sessions.Default(c)
	raw := session.Get(config.SessionUserIDKey)
	if raw == nil {
		return models.Identity{}, false
	}

	var id string
	switch v := raw.(type) {
	case string:
		id = v
	case int, int64, float64:
		id = fmt.Sprint(v)
	default:
		return models.Identity{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Identity{}, false
	}

	email, _ := session.Get(config.SessionUserEmailKey).(string)
	return models.Identity{ID: id, Email: strings.TrimSpace(email)}, true
}

func identityFromHeaders(c *gin.Context) (models.Identity, bool) {
	id := strings.TrimSpace(c.GetHeader(config.HeaderUserID))
	if id == "" {
		return models.Identity{}, false
	}
	return models.Identity{ID: id, Email: strings.TrimSpace(c.GetHeader(config.HeaderUserEmail))}, true
}

// GetIdentity returns the identity resolved by Identity, if any.
func GetIdentity(c *gin.Context) (*models.Identity, bool) {
	return contextutils.IdentityFromContext(c.Request.Context())
}
