package api

import (
	"github.com/poradna-dev/poradna/shared/domain"
)

// Request DTOs

// CreateQuestionRequest is the "json" part of the multipart submission.
// Files travel in the "attachments" parts.
type CreateQuestionRequest struct {
	Title      string             `json:"title" validate:"required,notblank,max=200"`
	Text       string             `json:"questionText" validate:"required,notblank,max=20000"`
	Categories domain.CategoryIds `json:"category" validate:"max=10,dive,gt=0"`
}

type UpdateQuestionRequest struct {
	Title      *string             `json:"title,omitempty" validate:"omitnil,notblank,max=200"`
	Text       *string             `json:"questionText,omitempty" validate:"omitnil,notblank,max=20000"`
	Categories *domain.CategoryIds `json:"category,omitempty" validate:"omitnil,max=10,dive,gt=0"`
}

// Response DTOs

type QuestionResponse struct {
	domain.Question
}

type CreatedResponse struct {
	Id          int64              `json:"id"`
	Attachments domain.Attachments `json:"files"`
}

type ArchiveResponse struct {
	domain.ArchivePage
	PageSize int `json:"pageSize"`
}
