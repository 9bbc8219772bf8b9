package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wilforlan/suncture-feedback-board/internal/config"
	"github.com/wilforlan/suncture-feedback-board/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type identityResponse struct {
	found bool
	id    models.Identity
}

func setupIdentityRouter(trustHeaders bool, seed func(sessions.Session)) (*gin.Engine, *identityResponse) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(sessions.Sessions("test-session", cookie.NewStore([]byte("test-secret"))))
	if seed != nil {
		router.Use(func(c *gin.Context) {
			seed(sessions.Default(c))
			c.Next()
		})
	}
	router.Use(Identity(trustHeaders))

	got := &identityResponse{}
	router.GET("/whoami", func(c *gin.Context) {
		id, ok := GetIdentity(c)
		got.found = ok
		if ok {
			got.id = *id
		}
		c.Status(http.StatusNoContent)
	})
	return router, got
}

func TestIdentity_FromSession(t *testing.T) {
	router, got := setupIdentityRouter(false, func(s sessions.Session) {
		s.Set(config.SessionUserIDKey, "user-42")
		s.Set(config.SessionUserEmailKey, "ada@example.com")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, got.found)
	assert.Equal(t, models.Identity{ID: "user-42", Email: "ada@example.com"}, got.id)
}

func TestIdentity_NumericSessionID(t *testing.T) {
	router, got := setupIdentityRouter(false, func(s sessions.Session) {
		s.Set(config.SessionUserIDKey, 7)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	assert.True(t, got.found)
	assert.Equal(t, "7", got.id.ID)
}

func TestIdentity_Headers(t *testing.T) {
	router, got := setupIdentityRouter(true, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(config.HeaderUserID, "proxy-user")
	req.Header.Set(config.HeaderUserEmail, "p@example.com")
	router.ServeHTTP(w, req)

	assert.True(t, got.found)
	assert.Equal(t, models.Identity{ID: "proxy-user", Email: "p@example.com"}, got.id)
}

func TestIdentity_HeadersIgnoredWhenUntrusted(t *testing.T) {
	router, got := setupIdentityRouter(false, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(config.HeaderUserID, "proxy-user")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, got.found)
}

func TestIdentity_Anonymous(t *testing.T) {
	router, got := setupIdentityRouter(true, func(s sessions.Session) {
		s.Set(config.SessionUserIDKey, "   ")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, got.found)
}
