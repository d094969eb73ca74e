package handler

import (
	"errors"
	"net/http"

	"anoa.com/studentroster/internal/roster/client"
	"anoa.com/studentroster/internal/web/session"
	"anoa.com/studentroster/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var validate = validator.New()

type signInForm struct {
	Email    string `form:"email" validate:"required,roster_email"`
	Password string `form:"password" validate:"required"`
}

type signUpForm struct {
	Email           string `form:"email" validate:"required,roster_email"`
	Password        string `form:"password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

type authPage struct {
	Email  string
	Error  string
	Errors map[string]string
}

type AuthHandler struct {
	auth     client.AuthAPI
	sessions *session.Manager
	cookie   CookieConfig
}

func NewAuthHandler(auth client.AuthAPI, sessions *session.Manager, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions, cookie: cookie}
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", authPage{})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var f signInForm
	if err := c.ShouldBind(&f); err != nil {
		c.HTML(http.StatusBadRequest, "login.html", authPage{Error: err.Error()})
		return
	}
	if err := validate.Struct(f); err != nil {
		c.HTML(http.StatusUnprocessableEntity, "login.html", authPage{Email: f.Email, Errors: validator.FieldMessages(err)})
		return
	}

	auth, err := h.auth.SignIn(c.Request.Context(), f.Email, f.Password)
	if err != nil {
		c.HTML(failureStatus(err), "login.html", authPage{Email: f.Email, Error: err.Error()})
		return
	}

	s := h.sessions.Start(c.Request.Context(), auth)
	h.cookie.set(c, s.ID)
	c.Redirect(http.StatusSeeOther, "/students")
}

func (h *AuthHandler) ShowSignUp(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", authPage{})
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var f signUpForm
	if err := c.ShouldBind(&f); err != nil {
		c.HTML(http.StatusBadRequest, "signup.html", authPage{Error: err.Error()})
		return
	}
	if err := validate.Struct(f); err != nil {
		c.HTML(http.StatusUnprocessableEntity, "signup.html", authPage{Email: f.Email, Errors: validator.FieldMessages(err)})
		return
	}

	auth, err := h.auth.SignUp(c.Request.Context(), f.Email, f.Password)
	if err != nil {
		c.HTML(failureStatus(err), "signup.html", authPage{Email: f.Email, Error: err.Error()})
		return
	}

	s := h.sessions.Start(c.Request.Context(), auth)
	h.cookie.set(c, s.ID)
	c.Redirect(http.StatusSeeOther, "/students")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if s, ok := currentSession(c); ok {
		if err := h.sessions.End(c.Request.Context(), s.ID); err != nil {
			logrus.WithError(err).Warn("backend sign-out failed")
		}
	}
	h.cookie.clear(c)
	c.Redirect(http.StatusSeeOther, "/login")
}

// failureStatus picks the response status for a failed backend call.
func failureStatus(err error) int {
	var apiErr *client.Error
	if errors.As(err, &apiErr) && apiErr.Status >= http.StatusBadRequest && apiErr.Status < http.StatusInternalServerError {
		return apiErr.Status
	}
	return http.StatusBadGateway
}
