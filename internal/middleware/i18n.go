package middleware

import (
	"github.com/blackbox-chat/blackbox-backend/internal/common"
	"github.com/blackbox-chat/blackbox-backend/pkg/i18n"
	"github.com/gin-gonic/gin"
)

// langCookie lets the web client pin a language across sessions
const langCookie = "bb_lang"

// I18n picks the response language: bb_lang cookie first, then Accept-Language.
func I18n() gin.HandlerFunc {
	return func(c *gin.Context) {
		pref := c.GetHeader("Accept-Language")
		if v, err := c.Cookie(langCookie); err == nil && v != "" {
			pref = v
		}
		locale := i18n.ParseAcceptLanguage(pref)
		c.Set(common.LocaleKey, locale)
		c.Header("Content-Language", string(locale))
		c.Next()
	}
}
