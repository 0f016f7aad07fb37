package app

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpMW "github.com/linguaflow/linguaflow-backend/internal/http/middleware"
	"github.com/linguaflow/linguaflow-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, handlers Handlers, middleware Middleware) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("linguaflow-backend"))
	r.Use(httpMW.CORS())
	r.Use(httpMW.RequestLogger(log))

	r.GET("/healthcheck", handlers.Health.Health)

	api := r.Group("/api")
	{
		api.POST("/register", handlers.Auth.Register)
		api.POST("/login", handlers.Auth.Login)
		api.GET("/languages", handlers.Language.List)
		api.GET("/languages/:id", handlers.Language.Get)
	}

	protected := api.Group("/")
	protected.Use(middleware.Auth.RequireAuth())
	{
		protected.POST("/logout", handlers.Auth.Logout)

		protected.POST("/generate-lesson", handlers.Generation.GenerateLesson)
		protected.POST("/generate-quiz", handlers.Generation.GenerateQuiz)
		protected.POST("/conversation-prompt", handlers.Generation.ConversationPrompt)
		protected.POST("/conversation-response", handlers.Generation.ConversationResponse)
		protected.POST("/pronunciation-feedback", handlers.Generation.PronunciationFeedback)

		protected.POST("/progress", handlers.Progress.Record)
		protected.GET("/progress", handlers.Progress.List)
	}

	return r
}
