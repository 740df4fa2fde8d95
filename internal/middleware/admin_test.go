package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blackbox-chat/blackbox-backend/internal/common"
	"github.com/blackbox-chat/blackbox-backend/pkg/cache"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubFlags map[string]*cache.ProfileFlags

func (s stubFlags) Flags(_ context.Context, userID string) (*cache.ProfileFlags, error) {
	f, ok := s[userID]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	return f, nil
}

func adminRouter(userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("userID", userID)
		}
		c.Next()
	})
	r.Use(RequireAdmin(stubFlags{
		"root": {IsAdmin: true},
		"ana":  {IsAdmin: false},
	}))
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestRequireAdmin(t *testing.T) {
	cases := []struct {
		name   string
		userID string
		want   int
	}{
		{"admin allowed", "root", http.StatusOK},
		{"regular user denied", "ana", http.StatusForbidden},
		{"deleted profile", "ghost", http.StatusUnauthorized},
		{"anonymous", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/test", nil)
			adminRouter(tc.userID).ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
