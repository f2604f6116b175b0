package service

import (
	"context"
	"strings"

	"github.com/poradna-dev/poradna/shared/domain"
	shared_errors "github.com/poradna-dev/poradna/shared/errors"
	"github.com/poradna-dev/poradna/shared/logger"
)

type AnswerService interface {
	Create(ctx context.Context, data domain.AnswerCreationData) (*domain.Answer, error)
	Update(ctx context.Context, data domain.AnswerUpdateData) (*domain.Answer, error)
	Delete(ctx context.Context, questionId domain.QuestionId, id domain.AnswerId) error
}

// AnswerStorage recomputes the parent question's answered flag on every
// create and delete.
type AnswerStorage interface {
	QuestionExists(ctx context.Context, id domain.QuestionId) (bool, error)
	CreateAnswer(ctx context.Context, questionId domain.QuestionId, text domain.Text, author domain.Author, attachments domain.Attachments) (domain.AnswerId, error)
	GetAnswer(ctx context.Context, questionId domain.QuestionId, id domain.AnswerId) (*domain.Answer, error)
	UpdateAnswer(ctx context.Context, questionId domain.QuestionId, id domain.AnswerId, text domain.Text, attachments *domain.Attachments) error
	DeleteAnswer(ctx context.Context, questionId domain.QuestionId, id domain.AnswerId) error
}

type Answer struct {
	storage     AnswerStorage
	attachments AttachmentPipeline
	renderer    TextRenderer
}

func NewAnswer(storage AnswerStorage, attachments AttachmentPipeline, renderer TextRenderer) AnswerService {
	return &Answer{storage: storage, attachments: attachments, renderer: renderer}
}

func (a *Answer) Create(ctx context.Context, data domain.AnswerCreationData) (*domain.Answer, error) {
	if strings.TrimSpace(data.Text) == "" {
		return nil, shared_errors.BadRequest("Text is required")
	}
	// checked before uploading so a missing question costs no blobs
	exists, err := a.storage.QuestionExists(ctx, data.QuestionId)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared_errors.NotFound("Question not found")
	}

	batch, err := a.attachments.UploadBatch(ctx, data.PendingFiles, userPrefix(AnswersPrefix, data.Author.Id), logProgress)
	if err != nil {
		return nil, err
	}

	id, err := a.storage.CreateAnswer(ctx, data.QuestionId, data.Text, data.Author.AsAuthor(), batch.Attachments)
	if err != nil {
		a.attachments.Discard(ctx, batch.Paths)
		return nil, err
	}
	logger.Log.Info("answer created", "id", id, "question", data.QuestionId, "uid", data.Author.Id)

	return a.get(ctx, data.QuestionId, id)
}

// Update replaces the text. New files replace the whole attachment list,
// without files the existing list stays.
func (a *Answer) Update(ctx context.Context, data domain.AnswerUpdateData) (*domain.Answer, error) {
	if strings.TrimSpace(data.Text) == "" {
		return nil, shared_errors.BadRequest("Text is required")
	}
	existing, err := a.storage.GetAnswer(ctx, data.QuestionId, data.Id)
	if err != nil {
		return nil, err
	}
	if !data.Editor.CanEdit(existing.Author) {
		return nil, shared_errors.Forbidden("Only the author or an admin can edit this answer")
	}

	var (
		replacement *domain.Attachments
		uploaded    []string
	)
	if len(data.PendingFiles) > 0 {
		// files go under the answer author's prefix even when an admin edits
		batch, err := a.attachments.UploadBatch(ctx, data.PendingFiles, userPrefix(AnswersPrefix, existing.Author.Uid), logProgress)
		if err != nil {
			return nil, err
		}
		replacement = &batch.Attachments
		uploaded = batch.Paths
	}

	if err := a.storage.UpdateAnswer(ctx, data.QuestionId, data.Id, data.Text, replacement); err != nil {
		a.attachments.Discard(ctx, uploaded)
		return nil, err
	}
	return a.get(ctx, data.QuestionId, data.Id)
}

func (a *Answer) Delete(ctx context.Context, questionId domain.QuestionId, id domain.AnswerId) error {
	return a.storage.DeleteAnswer(ctx, questionId, id)
}

func (a *Answer) get(ctx context.Context, questionId domain.QuestionId, id domain.AnswerId) (*domain.Answer, error) {
	answer, err := a.storage.GetAnswer(ctx, questionId, id)
	if err != nil {
		return nil, err
	}
	html, err := a.renderer.Render(answer.Text)
	if err != nil {
		return nil, err
	}
	answer.TextHTML = html
	return answer, nil
}
