// Package web is the server-rendered roster application.
package web

import (
	"fmt"
	"net/http"

	"anoa.com/studentroster/internal/roster/client"
	"anoa.com/studentroster/internal/web/handler"
	"anoa.com/studentroster/internal/web/session"
	"anoa.com/studentroster/internal/web/templates"
	"github.com/gin-gonic/gin"
)

type Server struct {
	engine   *gin.Engine
	sessions *session.Manager
}

func NewServer(auth client.AuthAPI, sessions *session.Manager, cookie handler.CookieConfig) (*Server, error) {
	views, err := templates.Parse()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	authHandler := handler.NewAuthHandler(auth, sessions, cookie)
	studentHandler := handler.NewStudentHandler(sessions, cookie)

	router := gin.New()
	router.SetHTMLTemplate(views)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/static/app.css"},
	}))
	router.StaticFS("/static", http.FS(templates.Static))

	router.Use(handler.LoadSession(sessions, cookie))

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, "/students")
	})

	guest := router.Group("")
	guest.Use(handler.RedirectIfSignedIn())
	{
		guest.GET("/login", authHandler.ShowLogin)
		guest.POST("/login", authHandler.Login)
		guest.GET("/signup", authHandler.ShowSignUp)
		guest.POST("/signup", authHandler.SignUp)
	}

	protected := router.Group("")
	protected.Use(handler.RequireSession())
	{
		protected.POST("/logout", authHandler.Logout)

		protected.GET("/students", studentHandler.List)
		protected.POST("/students/filters", studentHandler.ApplyFilters)
		protected.POST("/students/sort-order", studentHandler.ToggleSortOrder)
		protected.POST("/students/clear-error", studentHandler.ClearError)
		protected.POST("/students/:id/delete", studentHandler.Delete)

		protected.GET("/students/add", studentHandler.ShowCreate)
		protected.POST("/students/add", studentHandler.Create)
		protected.GET("/students/edit/:id", studentHandler.ShowEdit)
		protected.POST("/students/edit/:id", studentHandler.Update)
	}

	router.NoRoute(func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, "/students")
	})

	return &Server{engine: router, sessions: sessions}, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Close ends every open session.
func (s *Server) Close() error {
	return s.sessions.Close()
}
