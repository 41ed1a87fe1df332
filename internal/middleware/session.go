package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// SessionCookie is the anonymous session cookie carrying the cart key.
	SessionCookie = "tireshop_session"

	// SessionKey is the gin context key the session ID is stored under.
	SessionKey = "session_id"

	sessionMaxAge = 14 * 24 * 3600
)

// Session assigns every visitor a session ID cookie. Carts are keyed by it;
// no login is involved.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookie)
		if err != nil || uuid.Validate(sessionID) != nil {
			sessionID = uuid.New().String()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, sessionID, sessionMaxAge, "/", "", false, true)
		}
		c.Set(SessionKey, sessionID)
		c.Next()
	}
}

// SessionID returns the request's session ID set by Session.
func SessionID(c *gin.Context) string {
	return c.GetString(SessionKey)
}
