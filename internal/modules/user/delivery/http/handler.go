package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"anoa.com/studentroster/internal/middleware"
	session "anoa.com/studentroster/internal/modules/session/service"
	"anoa.com/studentroster/internal/modules/user/dto"
	user "anoa.com/studentroster/internal/modules/user/service"
	"anoa.com/studentroster/pkg/ratelimiter"
	"anoa.com/studentroster/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	service  user.AuthService
	sessions session.Service
	upgrader websocket.Upgrader
}

func NewAuthHandler(service user.AuthService, sessions session.Service) *AuthHandler {
	return &AuthHandler{
		service:  service,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The bearer token authenticates the socket, not cookies.
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var input dto.SignUpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := h.service.SignUp(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input dto.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := h.service.Login(c.Request.Context(), input)
	if err != nil {
		var rateLimitErr *ratelimiter.RateLimitError
		if errors.As(err, &rateLimitErr) {
			c.Header("Retry-After", fmt.Sprintf("%.0f", rateLimitErr.RetryAfter.Seconds()))
		}
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	expiresAt, _ := c.Get(middleware.ContextTokenExpiresAt)
	expiry, _ := expiresAt.(time.Time)

	if err := h.service.Logout(c.Request.Context(), userID, c.GetString(middleware.ContextTokenID), expiry); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	me, err := h.service.Me(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, me)
}

// WatchSession streams session events for the caller. The current identity
// is sent first, then every change until the client disconnects or the
// session ends.
func (h *AuthHandler) WatchSession(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	ctx := c.Request.Context()
	me, err := h.service.Me(ctx, userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	events, cancel, err := h.sessions.Subscribe(ctx, userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("failed to upgrade websocket")
		return
	}
	defer conn.Close()

	log := logrus.WithField("user_id", userID)

	if err := conn.WriteJSON(session.SignedIn(me)); err != nil {
		log.WithError(err).Debug("failed to write initial session event")
		return
	}

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				log.WithError(err).Debug("failed to write session event")
				return
			}
			if event.Type == session.EventSignedOut {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "signed out"),
					time.Now().Add(time.Second))
				return
			}
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		}
	}
}
