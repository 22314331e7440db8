package server

import (
	"fmt"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/infieles/reportes/config"
	"github.com/infieles/reportes/limiter"
)

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()

	r.ForwardedByClientIP = true
	if err := r.SetTrustedProxies(s.Config.TrustedProxies); err != nil {
		s.Log.Warn("invalid trusted proxies %v: %v", s.Config.TrustedProxies, err)
	}

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output: s.Log.Writer(),
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC1123),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))
	r.Use(gin.CustomRecovery(s.recoverPanic))
	if s.Config.SentryDSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	r.Use(cors.New(corsConfig(s.Config)))
	r.MaxMultipartMemory = 32 << 20
	s.defineRoutes(r)

	return r
}

func corsConfig(c *config.Config) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", c.AdminHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(c.AllowedOrigins) == 0 || (len(c.AllowedOrigins) == 1 && c.AllowedOrigins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = c.AllowedOrigins
	}
	return cfg
}

func (s *Server) defineRoutes(router *gin.Engine) {
	quota := s.Limiters.Chain(limiter.GlobalRules(s.Config)...)
	createQuota := s.Limiters.Store(limiter.CreateRule(s.Config))

	router.Use(limitRate(quota, quotaExceeded))

	router.GET("/", s.handleHome())
	if s.Config.StorageDriver == config.StorageLocal {
		router.Static(s.Config.UploadsRoute, s.Config.UploadDir)
	}

	apirouter := router.Group("/api")
	apirouter.GET("/reportes", s.handleListReports())
	apirouter.GET("/reportes/:id", s.handleGetReport())
	apirouter.POST("/reportes", limitRate(createQuota, createThrottled), s.handleCreateReport())

	adminrouter := apirouter.Group("/reportes")
	adminrouter.Use(s.RequireAdmin())
	adminrouter.PUT("/:id", s.handleUpdateReport())
	adminrouter.DELETE("/:id", s.handleDeleteReport())
}
