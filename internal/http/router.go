package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/IGabriel/ai-knowledge-bench/internal/http/handlers"
	httpMW "github.com/IGabriel/ai-knowledge-bench/internal/http/middleware"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	DocumentHandler   *httpH.DocumentHandler
	ProfileHandler    *httpH.ProfileHandler
	QueryHandler      *httpH.QueryHandler
	ChatHandler       *httpH.ChatHandler
	EvaluationHandler *httpH.EvaluationHandler
	EventsHandler     *httpH.EventsHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.DocumentHandler != nil {
			api.POST("/documents", cfg.DocumentHandler.Upload)
			api.GET("/documents", cfg.DocumentHandler.List)
			api.GET("/documents/:id", cfg.DocumentHandler.Get)
			api.POST("/documents/:id/reindex", cfg.DocumentHandler.Reindex)
		}

		if cfg.ProfileHandler != nil {
			api.POST("/profiles", cfg.ProfileHandler.Create)
			api.GET("/profiles", cfg.ProfileHandler.List)
			api.GET("/profiles/active", cfg.ProfileHandler.GetActive)
			api.POST("/profiles/:id/activate", cfg.ProfileHandler.Activate)
		}

		if cfg.QueryHandler != nil {
			api.POST("/query", cfg.QueryHandler.Query)
		}

		if cfg.ChatHandler != nil {
			api.POST("/chat", cfg.ChatHandler.Chat)
		}

		if cfg.EvaluationHandler != nil {
			api.POST("/evaluations", cfg.EvaluationHandler.Run)
			api.GET("/evaluations", cfg.EvaluationHandler.ListRuns)
			api.GET("/evaluations/:id", cfg.EvaluationHandler.GetRun)
		}

		if cfg.EventsHandler != nil {
			api.GET("/events", cfg.EventsHandler.Stream)
		}
	}

	return r
}
