package handler

import (
	"context"

	"github.com/poradna-dev/poradna/backend/internal/service"
	"github.com/poradna-dev/poradna/shared/config"
)

// HealthChecker reports whether a dependency can serve requests.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	question service.QuestionService
	answer   service.AnswerService
	category service.CategoryService
	user     service.UserService
	health   HealthChecker
	cfg      *config.Config
}

func New(question service.QuestionService, answer service.AnswerService, category service.CategoryService, user service.UserService, health HealthChecker, cfg *config.Config) *Handler {
	return &Handler{
		question: question,
		answer:   answer,
		category: category,
		user:     user,
		health:   health,
		cfg:      cfg,
	}
}
