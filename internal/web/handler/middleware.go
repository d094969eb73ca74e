package handler

import (
	"errors"
	"net/http"

	"anoa.com/studentroster/internal/roster/client"
	"anoa.com/studentroster/internal/web/session"
	"github.com/gin-gonic/gin"
)

const sessionKey = "web_session"

// CookieConfig describes the browser cookie that carries the session id.
type CookieConfig struct {
	Name   string
	Secure bool
}

func (cc CookieConfig) set(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cc.Name, id, 0, "/", "", cc.Secure, true)
}

func (cc CookieConfig) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cc.Name, "", -1, "/", "", cc.Secure, true)
}

// LoadSession attaches the caller's session, if any, to the request.
func LoadSession(manager *session.Manager, cookie CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(cookie.Name)
		if err == nil && id != "" {
			if s, ok := manager.Get(id); ok {
				c.Set(sessionKey, s)
			} else {
				cookie.clear(c)
			}
		}
		c.Next()
	}
}

// RequireSession sends visitors without a session to the sign-in page.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentSession(c); !ok {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RedirectIfSignedIn keeps signed-in users away from the sign-in pages.
func RedirectIfSignedIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentSession(c); ok {
			c.Redirect(http.StatusSeeOther, "/students")
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*session.Session)
	return s, ok
}

// endIfRejected handles a backend 401 on a session's token: the session is
// forgotten, the cookie cleared and the browser sent to sign in again. It
// reports whether the response has been written.
func endIfRejected(c *gin.Context, manager *session.Manager, cookie CookieConfig, s *session.Session, err error) bool {
	var apiErr *client.Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		return false
	}
	manager.Forget(s.ID)
	cookie.clear(c)
	c.Redirect(http.StatusSeeOther, "/login")
	c.Abort()
	return true
}
