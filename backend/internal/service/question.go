package service

import (
	"context"
	"fmt"
	"strings"

	internal_errors "github.com/poradna-dev/poradna/backend/internal/errors"
	"github.com/poradna-dev/poradna/shared/domain"
	shared_errors "github.com/poradna-dev/poradna/shared/errors"
	"github.com/poradna-dev/poradna/shared/logger"
)

const (
	QuestionsPrefix = "questions"
	AnswersPrefix   = "answers"
)

type QuestionService interface {
	Create(ctx context.Context, data domain.QuestionCreationData) (*domain.Question, error)
	Get(ctx context.Context, id domain.QuestionId) (*domain.Question, error)
	Archive(ctx context.Context, filter domain.ArchiveFilter) (*domain.ArchivePage, error)
	Update(ctx context.Context, data domain.QuestionUpdateData) (*domain.Question, error)
	Delete(ctx context.Context, id domain.QuestionId) error
}

type QuestionStorage interface {
	CreateQuestion(ctx context.Context, title domain.QuestionTitle, text domain.Text, categories domain.CategoryIds, author domain.Author, attachments domain.Attachments) (domain.QuestionId, error)
	GetQuestion(ctx context.Context, id domain.QuestionId) (*domain.Question, error)
	ListQuestions(ctx context.Context, filter domain.ArchiveFilter, limit, offset int) ([]domain.Question, int, error)
	UpdateQuestion(ctx context.Context, data domain.QuestionUpdateData) error
	DeleteQuestion(ctx context.Context, id domain.QuestionId) error
	MissingCategories(ctx context.Context, ids domain.CategoryIds) (domain.CategoryIds, error)
}

// AttachmentPipeline is the part of AttachmentUploader used by submit flows.
type AttachmentPipeline interface {
	UploadBatch(ctx context.Context, files []*domain.PendingFile, prefix string, progress ProgressFunc) (*Batch, error)
	Discard(ctx context.Context, paths []string)
}

type TextRenderer interface {
	Render(src string) (string, error)
}

type Question struct {
	storage     QuestionStorage
	attachments AttachmentPipeline
	renderer    TextRenderer
	pageSize    int
}

func NewQuestion(storage QuestionStorage, attachments AttachmentPipeline, renderer TextRenderer, pageSize int) QuestionService {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Question{storage: storage, attachments: attachments, renderer: renderer, pageSize: pageSize}
}

func (q *Question) Create(ctx context.Context, data domain.QuestionCreationData) (*domain.Question, error) {
	if strings.TrimSpace(data.Title) == "" || strings.TrimSpace(data.Text) == "" {
		return nil, shared_errors.BadRequest("Title and text are required")
	}
	if err := checkCategories(ctx, q.storage, data.Categories); err != nil {
		return nil, err
	}

	batch, err := q.attachments.UploadBatch(ctx, data.PendingFiles, userPrefix(QuestionsPrefix, data.Author.Id), logProgress)
	if err != nil {
		return nil, err
	}

	id, err := q.storage.CreateQuestion(ctx, data.Title, data.Text, data.Categories, data.Author.AsAuthor(), batch.Attachments)
	if err != nil {
		q.attachments.Discard(ctx, batch.Paths)
		return nil, err
	}
	logger.Log.Info("question created", "id", id, "uid", data.Author.Id, "attachments", len(batch.Attachments))

	return q.Get(ctx, id)
}

func (q *Question) Get(ctx context.Context, id domain.QuestionId) (*domain.Question, error) {
	question, err := q.storage.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := q.render(question); err != nil {
		return nil, err
	}
	return question, nil
}

func (q *Question) Archive(ctx context.Context, filter domain.ArchiveFilter) (*domain.ArchivePage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	filter.Query = strings.TrimSpace(filter.Query)

	questions, total, err := q.storage.ListQuestions(ctx, filter, q.pageSize, (filter.Page-1)*q.pageSize)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		if err := q.render(&questions[i]); err != nil {
			return nil, err
		}
	}
	if questions == nil {
		questions = []domain.Question{}
	}
	return &domain.ArchivePage{Questions: questions, Page: filter.Page, Total: total}, nil
}

func (q *Question) Update(ctx context.Context, data domain.QuestionUpdateData) (*domain.Question, error) {
	existing, err := q.storage.GetQuestion(ctx, data.Id)
	if err != nil {
		return nil, err
	}
	if !data.Editor.CanEdit(existing.Author) {
		return nil, shared_errors.Forbidden("Only the author or an admin can edit this question")
	}
	if data.Title != nil && strings.TrimSpace(*data.Title) == "" {
		return nil, shared_errors.BadRequest("Title can't be empty")
	}
	if data.Text != nil && strings.TrimSpace(*data.Text) == "" {
		return nil, shared_errors.BadRequest("Text can't be empty")
	}
	if data.Categories != nil {
		if err := checkCategories(ctx, q.storage, *data.Categories); err != nil {
			return nil, err
		}
	}
	if data.Title == nil && data.Text == nil && data.Categories == nil {
		if err := q.render(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	if err := q.storage.UpdateQuestion(ctx, data); err != nil {
		return nil, err
	}
	return q.Get(ctx, data.Id)
}

// Delete removes the question with its answers. Blobs become orphans and
// are reclaimed by the garbage collector.
func (q *Question) Delete(ctx context.Context, id domain.QuestionId) error {
	return q.storage.DeleteQuestion(ctx, id)
}

func (q *Question) render(question *domain.Question) error {
	html, err := q.renderer.Render(question.Text)
	if err != nil {
		return err
	}
	question.TextHTML = html
	for i := range question.Answers {
		html, err := q.renderer.Render(question.Answers[i].Text)
		if err != nil {
			return err
		}
		question.Answers[i].TextHTML = html
	}
	return nil
}

type categoryChecker interface {
	MissingCategories(ctx context.Context, ids domain.CategoryIds) (domain.CategoryIds, error)
}

func checkCategories(ctx context.Context, storage categoryChecker, ids domain.CategoryIds) error {
	if len(ids) == 0 {
		return nil
	}
	missing, err := storage.MissingCategories(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return &internal_errors.ValidationError{Message: fmt.Sprintf("unknown categories %v", missing)}
	}
	return nil
}

func userPrefix(kind string, uid domain.UserId) string {
	return kind + "/" + cleanFilename(uid)
}

func logProgress(p domain.UploadProgress) {
	if p.BytesSent == p.BytesTotal {
		logger.Log.Debug("rendition stored", "filename", p.Filename, "index", p.Index, "step", p.Step, "bytes", p.BytesTotal)
	}
}
