package main

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ZanzyTHEbar/elkquiz/docs"
	apperrors "github.com/ZanzyTHEbar/elkquiz/internal/errors"
	"github.com/ZanzyTHEbar/elkquiz/internal/frontend"
	"github.com/ZanzyTHEbar/elkquiz/internal/monitoring"
	"github.com/ZanzyTHEbar/elkquiz/internal/security"
)

func (app *application) routes() *gin.Engine {
	r := gin.New()

	r.Use(apperrors.RecoveryHandler())
	r.Use(apperrors.ErrorHandler())
	r.Use(monitoring.TracingMiddleware(app.tracer))
	r.Use(monitoring.MonitoringMiddleware(app.metrics, app.logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(app.logger, app.cfg.Security.MaxBodyBytes))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", monitoring.RequestIDHeader},
		ExposeHeaders:   []string{monitoring.RequestIDHeader, "Retry-After", "X-RateLimit-Remaining"},
		MaxAge:          12 * time.Hour,
	}))
	r.Use(app.security.SecurityHeaders())
	r.Use(app.compression.Handler())
	r.Use(app.security.RequestTimeout)

	cached := app.cache.Middleware(app.metrics, app.logger)
	body := []gin.HandlerFunc{app.security.ValidateContentType, app.security.LimitBody}
	submit := slices.Concat([]gin.HandlerFunc{app.limiter.SubmitRateLimitMiddleware(app.logger)}, body)

	api := r.Group("/api")
	{
		api.GET("/health", app.health)
		api.POST("/reload", slices.Concat(body, []gin.HandlerFunc{app.reload})...)
		api.GET("/stats", app.statsHandler)
		api.GET("/suites", cached, app.listSuites)
		api.GET("/ad-config", cached, app.adConfig)

		suites := api.Group("/suites/:id")
		suites.GET("/questions", cached, app.questions)
		suites.GET("/metadata", cached, app.metadata)
		suites.POST("/submit", slices.Concat(submit, []gin.HandlerFunc{app.submit})...)
		suites.GET("/result/:rid", app.result)

		api.GET("/questions", cached, app.legacyQuestions)
		api.GET("/metadata", cached, app.legacyMetadata)
		api.POST("/submit", slices.Concat(submit, []gin.HandlerFunc{app.legacySubmit})...)
		api.GET("/result/:rid", app.legacyResult)
	}

	r.GET("/metrics", gin.WrapH(app.metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/favicon.ico", frontend.FaviconHandler(app.publicFS))
	r.NoRoute(security.CSPMiddleware(), frontend.NewStaticHandler(app.publicFS, app.index))

	return r
}
