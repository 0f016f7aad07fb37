package app

import (
	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-backend/internal/data/repos"
	"github.com/linguaflow/linguaflow-backend/internal/platform/logger"
)

type Repos struct {
	User          repos.UserRepo
	UserToken     repos.UserTokenRepo
	Language      repos.LanguageRepo
	Lesson        repos.LessonRepo
	Quiz          repos.QuizRepo
	Progress      repos.ProgressRepo
	Conversation  repos.ConversationRepo
	Pronunciation repos.PronunciationRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		UserToken:     repos.NewUserTokenRepo(db, log),
		Language:      repos.NewLanguageRepo(db, log),
		Lesson:        repos.NewLessonRepo(db, log),
		Quiz:          repos.NewQuizRepo(db, log),
		Progress:      repos.NewProgressRepo(db, log),
		Conversation:  repos.NewConversationRepo(db, log),
		Pronunciation: repos.NewPronunciationRepo(db, log),
	}
}
