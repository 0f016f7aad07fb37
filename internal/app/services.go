package app

import (
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-backend/internal/platform/logger"
	"github.com/linguaflow/linguaflow-backend/internal/platform/openai"
	"github.com/linguaflow/linguaflow-backend/internal/realtime"
	"github.com/linguaflow/linguaflow-backend/internal/services"
)

type Services struct {
	Auth       services.AuthService
	Language   services.LanguageService
	Generation services.GenerationService
	Progress   services.ProgressService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, bus realtime.Bus) (Services, error) {
	log.Info("Wiring services...")

	llm, err := openai.NewClient(log)
	if err != nil {
		return Services{}, fmt.Errorf("init openai client: %w", err)
	}

	auth := services.NewAuthService(db, log, reposet.User, reposet.UserToken, cfg.JWTSecretKey, cfg.AccessTokenTTL)
	language := services.NewLanguageService(db, log, reposet.Language)
	gen := services.NewGenerationService(
		db, log, cfg.Generation, llm,
		reposet.Language, reposet.Lesson, reposet.Quiz,
		reposet.Conversation, reposet.Pronunciation, bus,
	)
	progress := services.NewProgressService(db, log, reposet.Progress, reposet.Lesson)

	return Services{
		Auth:       auth,
		Language:   language,
		Generation: gen,
		Progress:   progress,
	}, nil
}

// wireBus is optional infrastructure: without REDIS_ADDR the app runs with
// events disabled rather than failing to boot.
func wireBus(log *logger.Logger) realtime.Bus {
	if os.Getenv("REDIS_ADDR") == "" {
		log.Info("REDIS_ADDR not set, generation events disabled")
		return nil
	}
	bus, err := realtime.NewRedisBus(log)
	if err != nil {
		log.Warn("Redis bus unavailable, generation events disabled", "error", err)
		return nil
	}
	return bus
}
