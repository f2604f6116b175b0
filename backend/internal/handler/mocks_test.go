package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/poradna-dev/poradna/shared/config"
	"github.com/poradna-dev/poradna/shared/domain"
	mw "github.com/poradna-dev/poradna/shared/middleware"
	"github.com/stretchr/testify/require"
)

type MockQuestionService struct {
	MockCreate  func(data domain.QuestionCreationData) (*domain.Question, error)
	MockGet     func(id domain.QuestionId) (*domain.Question, error)
	MockArchive func(filter domain.ArchiveFilter) (*domain.ArchivePage, error)
	MockUpdate  func(data domain.QuestionUpdateData) (*domain.Question, error)
	MockDelete  func(id domain.QuestionId) error
}

func (m *MockQuestionService) Create(ctx context.Context, data domain.QuestionCreationData) (*domain.Question, error) {
	if m.MockCreate != nil {
		return m.MockCreate(data)
	}
	return &domain.Question{}, nil
}

func (m *MockQuestionService) Get(ctx context.Context, id domain.QuestionId) (*domain.Question, error) {
	if m.MockGet != nil {
		return m.MockGet(id)
	}
	return &domain.Question{QuestionMetadata: domain.QuestionMetadata{Id: id}}, nil
}

func (m *MockQuestionService) Archive(ctx context.Context, filter domain.ArchiveFilter) (*domain.ArchivePage, error) {
	if m.MockArchive != nil {
		return m.MockArchive(filter)
	}
	return &domain.ArchivePage{Questions: []domain.Question{}, Page: filter.Page}, nil
}

func (m *MockQuestionService) Update(ctx context.Context, data domain.QuestionUpdateData) (*domain.Question, error) {
	if m.MockUpdate != nil {
		return m.MockUpdate(data)
	}
	return &domain.Question{}, nil
}

func (m *MockQuestionService) Delete(ctx context.Context, id domain.QuestionId) error {
	if m.MockDelete != nil {
		return m.MockDelete(id)
	}
	return nil
}

type MockAnswerService struct {
	MockCreate func(data domain.AnswerCreationData) (*domain.Answer, error)
	MockUpdate func(data domain.AnswerUpdateData) (*domain.Answer, error)
	MockDelete func(questionId domain.QuestionId, id domain.AnswerId) error
}

func (m *MockAnswerService) Create(ctx context.Context, data domain.AnswerCreationData) (*domain.Answer, error) {
	if m.MockCreate != nil {
		return m.MockCreate(data)
	}
	return &domain.Answer{QuestionId: data.QuestionId}, nil
}

func (m *MockAnswerService) Update(ctx context.Context, data domain.AnswerUpdateData) (*domain.Answer, error) {
	if m.MockUpdate != nil {
		return m.MockUpdate(data)
	}
	return &domain.Answer{Id: data.Id, QuestionId: data.QuestionId}, nil
}

func (m *MockAnswerService) Delete(ctx context.Context, questionId domain.QuestionId, id domain.AnswerId) error {
	if m.MockDelete != nil {
		return m.MockDelete(questionId, id)
	}
	return nil
}

type MockCategoryService struct {
	MockList   func() ([]domain.Category, error)
	MockCreate func(name domain.CategoryName) (*domain.Category, error)
	MockRename func(id domain.CategoryId, name domain.CategoryName) (*domain.Category, error)
	MockDelete func(id domain.CategoryId) error
}

func (m *MockCategoryService) List(ctx context.Context) ([]domain.Category, error) {
	if m.MockList != nil {
		return m.MockList()
	}
	return []domain.Category{}, nil
}

func (m *MockCategoryService) Create(ctx context.Context, name domain.CategoryName) (*domain.Category, error) {
	if m.MockCreate != nil {
		return m.MockCreate(name)
	}
	return &domain.Category{Id: 1, Name: name}, nil
}

func (m *MockCategoryService) Rename(ctx context.Context, id domain.CategoryId, name domain.CategoryName) (*domain.Category, error) {
	if m.MockRename != nil {
		return m.MockRename(id, name)
	}
	return &domain.Category{Id: id, Name: name}, nil
}

func (m *MockCategoryService) Delete(ctx context.Context, id domain.CategoryId) error {
	if m.MockDelete != nil {
		return m.MockDelete(id)
	}
	return nil
}

type MockUserService struct {
	MockSetRole       func(actor *domain.User, id domain.UserId, role domain.Role) error
	MockDelete        func(actor *domain.User, id domain.UserId) error
	MockUpdateProfile func(actor *domain.User, data domain.ProfileUpdateData) (domain.User, error)
}

func (m *MockUserService) Profile(ctx context.Context, actor *domain.User) (domain.User, error) {
	return *actor, nil
}

func (m *MockUserService) UpdateProfile(ctx context.Context, actor *domain.User, data domain.ProfileUpdateData) (domain.User, error) {
	if m.MockUpdateProfile != nil {
		return m.MockUpdateProfile(actor, data)
	}
	return *actor, nil
}

func (m *MockUserService) Sync(ctx context.Context, user domain.User) (domain.User, error) {
	return user, nil
}

func (m *MockUserService) List(ctx context.Context) ([]domain.User, error) {
	return []domain.User{}, nil
}

func (m *MockUserService) SetRole(ctx context.Context, actor *domain.User, id domain.UserId, role domain.Role) error {
	if m.MockSetRole != nil {
		return m.MockSetRole(actor, id, role)
	}
	return nil
}

func (m *MockUserService) Delete(ctx context.Context, actor *domain.User, id domain.UserId) error {
	if m.MockDelete != nil {
		return m.MockDelete(actor, id)
	}
	return nil
}

type MockHealth struct {
	err error
}

func (m *MockHealth) Ping(ctx context.Context) error { return m.err }

func testConfig() *config.Config {
	return &config.Config{Public: config.Public{
		QuestionsPerPage:            20,
		MaxAttachmentsPerSubmission: 2,
		MaxAttachmentSizeBytes:      1024,
		MaxTotalAttachmentSize:      4096,
		AllowedImageMimeTypes:       []string{"image/jpeg", "image/png"},
	}}
}

type testServices struct {
	question *MockQuestionService
	answer   *MockAnswerService
	category *MockCategoryService
	user     *MockUserService
	health   *MockHealth
}

func newTestHandler() (*Handler, *testServices) {
	s := &testServices{
		question: &MockQuestionService{},
		answer:   &MockAnswerService{},
		category: &MockCategoryService{},
		user:     &MockUserService{},
		health:   &MockHealth{},
	}
	return New(s.question, s.answer, s.category, s.user, s.health, testConfig()), s
}

type filePart struct {
	name        string
	contentType string
	content     []byte
}

// multipartRequest builds a submission with the json field and attachment parts.
func multipartRequest(t *testing.T, method, target, jsonPayload string, files ...filePart) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if jsonPayload != "" {
		require.NoError(t, writer.WriteField("json", jsonPayload))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="attachments"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func withUser(req *http.Request, user *domain.User) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), mw.UserClaimsKey, user))
}

var (
	testUser  = &domain.User{Id: "u1", Email: "jana@example.cz", DisplayName: "Jana", Role: domain.RoleUser}
	testAdmin = &domain.User{Id: "a1", Email: "poradna@example.cz", Role: domain.RoleAdmin}
)
