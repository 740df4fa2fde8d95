package common

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/blackbox-chat/blackbox-backend/pkg/i18n"
	"github.com/blackbox-chat/blackbox-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// LocaleKey is the gin context key under which the request locale is stored
const LocaleKey = "locale"

var bundle atomic.Pointer[i18n.Bundle]

func init() {
	bundle.Store(i18n.NewDefaultBundle())
}

// SetBundle replaces the translation bundle used for error messages
func SetBundle(b *i18n.Bundle) {
	if b != nil {
		bundle.Store(b)
	}
}

// Locale returns the request locale (set by the I18n middleware)
func Locale(c *gin.Context) i18n.Locale {
	if v, ok := c.Get(LocaleKey); ok {
		if l, ok := v.(i18n.Locale); ok {
			return l
		}
	}
	return i18n.DefaultLocale
}

// T translates key for the request locale
func T(c *gin.Context, key string, args ...interface{}) string {
	return bundle.Load().T(Locale(c), key, args...)
}

// OK writes {"ok": true, ...fields}
func OK(c *gin.Context, fields gin.H) {
	OKStatus(c, http.StatusOK, fields)
}

// OKStatus is OK with an explicit status code
func OKStatus(c *gin.Context, status int, fields gin.H) {
	body := gin.H{"ok": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(status, body)
}

// Fail maps err to a status and writes {"ok": false, "error": message}.
// Errors outside the business taxonomy are logged and reported generically.
func Fail(c *gin.Context, err error) {
	status := StatusOf(err)

	var appErr *Error
	switch {
	case errors.As(err, &appErr):
		ErrorResponse(c, status, T(c, appErr.Key))
	case status == http.StatusInternalServerError:
		log := logger.WithRequestID(c.GetString("request_id"))
		log.Error().Err(err).Str("route", c.FullPath()).Msg("upstream error")
		ErrorResponse(c, status, T(c, kindKey(status)))
	default:
		ErrorResponse(c, status, T(c, kindKey(status)))
	}
}

// ErrorResponse writes an error JSON response with a literal message
func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"ok":    false,
		"error": message,
		"code":  getErrorCode(status),
	})
}

// AbortWithError is Fail followed by c.Abort (middleware use)
func AbortWithError(c *gin.Context, err error) {
	Fail(c, err)
	c.Abort()
}

// getErrorCode generates error code from HTTP status
func getErrorCode(status int) string {
	switch status {
	case 400:
		return "BAD_REQUEST"
	case 401:
		return "UNAUTHORIZED"
	case 403:
		return "FORBIDDEN"
	case 404:
		return "NOT_FOUND"
	case 409:
		return "CONFLICT"
	case 413:
		return "PAYLOAD_TOO_LARGE"
	case 429:
		return "RATE_LIMITED"
	case 500:
		return "INTERNAL_SERVER_ERROR"
	default:
		return "ERROR"
	}
}
