package app

import (
	"gorm.io/gorm"

	httpH "github.com/linguaflow/linguaflow-backend/internal/http/handlers"
	httpMW "github.com/linguaflow/linguaflow-backend/internal/http/middleware"
	"github.com/linguaflow/linguaflow-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Auth       *httpH.AuthHandler
	Language   *httpH.LanguageHandler
	Generation *httpH.GenerationHandler
	Progress   *httpH.ProgressHandler
}

func wireMiddleware(log *logger.Logger, serviceset Services) Middleware {
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, serviceset.Auth),
	}
}

func wireHandlers(log *logger.Logger, db *gorm.DB, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(db),
		Auth:       httpH.NewAuthHandler(serviceset.Auth),
		Language:   httpH.NewLanguageHandler(serviceset.Language),
		Generation: httpH.NewGenerationHandler(serviceset.Generation),
		Progress:   httpH.NewProgressHandler(serviceset.Progress),
	}
}
