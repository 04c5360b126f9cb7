package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"gopherai-ytchat/internal/session"
	"gopherai-ytchat/internal/transport/http/response"
)

const (
	ContextSessionIDKey = "session_id"
	HeaderSessionToken  = "X-Session-Token"
)

type TokenIssuer interface {
	Issue(sessionID string) (string, error)
	Parse(raw string) (string, error)
}

// SessionToken resolves the caller's chat session from a bearer token, the
// X-Session-Token header or a cookie. A missing, invalid or evicted
// session gets a fresh one, and its token is returned in the response
// header and cookie.
func SessionToken(store *session.Store, issuer TokenIssuer, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sessionID string
		if raw := tokenFromRequest(c, cookieName); raw != "" {
			id, err := issuer.Parse(raw)
			if err != nil {
				log.Debug().Err(err).Msg("session token rejected")
			} else {
				sessionID = id
			}
		}

		sess, created := store.Ensure(sessionID)
		if created {
			token, err := issuer.Issue(sess.ID)
			if err != nil {
				store.Delete(sess.ID)
				log.Error().Err(err).Msg("issue session token failed")
				response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "issue session token failed")
				c.Abort()
				return
			}
			c.Header(HeaderSessionToken, token)
			if cookieName != "" {
				c.SetSameSite(http.SameSiteLaxMode)
				c.SetCookie(cookieName, token, 0, "/", "", false, true)
			}
		}

		c.Set(ContextSessionIDKey, sess.ID)
		c.Next()
	}
}

func SessionID(c *gin.Context) string {
	return c.GetString(ContextSessionIDKey)
}

func tokenFromRequest(c *gin.Context, cookieName string) string {
	const prefix = "Bearer "
	if authHeader := strings.TrimSpace(c.GetHeader("Authorization")); strings.HasPrefix(authHeader, prefix) {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
	}
	if token := strings.TrimSpace(c.GetHeader(HeaderSessionToken)); token != "" {
		return token
	}
	if cookieName != "" {
		if token, err := c.Cookie(cookieName); err == nil {
			return strings.TrimSpace(token)
		}
	}
	return ""
}
