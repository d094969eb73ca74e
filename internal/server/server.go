package server

import (
	"net/http"
	"sync"
	"time"

	"anoa.com/studentroster/internal/config"
	"anoa.com/studentroster/internal/middleware"
	"anoa.com/studentroster/pkg/validator"

	searchService "anoa.com/studentroster/internal/modules/search/service"
	sessionService "anoa.com/studentroster/internal/modules/session/service"

	studentHttp "anoa.com/studentroster/internal/modules/student/delivery/http"
	studentRepo "anoa.com/studentroster/internal/modules/student/repository"
	studentService "anoa.com/studentroster/internal/modules/student/service"

	userHttp "anoa.com/studentroster/internal/modules/user/delivery/http"
	userRepo "anoa.com/studentroster/internal/modules/user/repository"
	userService "anoa.com/studentroster/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	playground "github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var registerRules sync.Once

type Server struct {
	engine *gin.Engine
}

// NewServer wires the REST API. redisClient and index are optional: without
// redis, session events stay in process and login is not throttled; without
// index, search runs against the database.
func NewServer(db *gorm.DB, redisClient *redis.Client, index searchService.StudentIndex, cfg *config.Config) *Server {
	registerRules.Do(func() {
		if v, ok := binding.Validator.Engine().(*playground.Validate); ok {
			if err := validator.RegisterRules(v); err != nil {
				logrus.WithError(err).Fatal("failed to register validation rules")
			}
		}
	})

	sessions := sessionService.NewService(redisClient)

	userRepository := userRepo.NewUserRepository(db)
	authSvc := userService.NewAuthService(userRepository, sessions, redisClient, userService.Options{
		Secret:        cfg.JWTSecret,
		TokenTTL:      cfg.JWTTTL,
		LoginCooldown: cfg.LoginCooldown,
	})
	authHandler := userHttp.NewAuthHandler(authSvc, sessions)

	studentRepository := studentRepo.NewStudentRepository(db)
	studentSvc := studentService.NewService(studentRepository, index)
	studentHandler := studentHttp.NewStudentHandler(studentSvc)

	router := gin.New()

	setupCORS(router, cfg.Origins())

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz"},
	}))

	router.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret, sessions)

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.SignUp)
		auth.POST("/login", authHandler.Login)
	}

	// Protected routes
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)
		protected.GET("/auth/ws", authHandler.WatchSession)

		protected.GET("/students", studentHandler.ListStudents)
		protected.GET("/students/search", studentHandler.SearchStudents)
		protected.GET("/students/:id", studentHandler.GetStudent)
		protected.POST("/students", studentHandler.CreateStudent)
		protected.PATCH("/students/:id", studentHandler.UpdateStudent)
		protected.DELETE("/students/:id", studentHandler.DeleteStudent)
	}

	return &Server{engine: router}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
