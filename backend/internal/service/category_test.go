package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/poradna-dev/poradna/shared/domain"
	shared_errors "github.com/poradna-dev/poradna/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockCategoryStorage struct {
	listFunc   func() ([]domain.Category, error)
	createFunc func(name domain.CategoryName) (domain.CategoryId, error)
	renameFunc func(id domain.CategoryId, name domain.CategoryName) error
	deleteFunc func(id domain.CategoryId) error

	createdName domain.CategoryName
}

func (m *MockCategoryStorage) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if m.listFunc != nil {
		return m.listFunc()
	}
	return nil, nil
}

func (m *MockCategoryStorage) CreateCategory(ctx context.Context, name domain.CategoryName) (domain.CategoryId, error) {
	m.createdName = name
	if m.createFunc != nil {
		return m.createFunc(name)
	}
	return 1, nil
}

func (m *MockCategoryStorage) RenameCategory(ctx context.Context, id domain.CategoryId, name domain.CategoryName) error {
	if m.renameFunc != nil {
		return m.renameFunc(id, name)
	}
	return nil
}

func (m *MockCategoryStorage) DeleteCategory(ctx context.Context, id domain.CategoryId) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(id)
	}
	return nil
}

func TestCategoryService(t *testing.T) {
	ctx := context.Background()

	t.Run("list never returns nil", func(t *testing.T) {
		svc := NewCategory(&MockCategoryStorage{})
		categories, err := svc.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, categories)
		assert.Empty(t, categories)
	})

	t.Run("create trims name", func(t *testing.T) {
		storage := &MockCategoryStorage{}
		svc := NewCategory(storage)
		c, err := svc.Create(ctx, "  Ortopedie ")
		require.NoError(t, err)
		assert.Equal(t, "Ortopedie", c.Name)
		assert.Equal(t, "Ortopedie", storage.createdName)
	})

	t.Run("blank name", func(t *testing.T) {
		svc := NewCategory(&MockCategoryStorage{})
		_, err := svc.Create(ctx, " ")
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
		_, err = svc.Rename(ctx, 1, "")
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	})

	t.Run("duplicate passes through", func(t *testing.T) {
		storage := &MockCategoryStorage{createFunc: func(domain.CategoryName) (domain.CategoryId, error) {
			return 0, shared_errors.Conflict("Category already exists")
		}}
		svc := NewCategory(storage)
		_, err := svc.Create(ctx, "Ortopedie")
		assert.Equal(t, http.StatusConflict, statusOf(t, err))
	})

	t.Run("rename", func(t *testing.T) {
		var gotId domain.CategoryId
		storage := &MockCategoryStorage{renameFunc: func(id domain.CategoryId, name domain.CategoryName) error {
			gotId = id
			return nil
		}}
		svc := NewCategory(storage)
		c, err := svc.Rename(ctx, 4, "Neurologie")
		require.NoError(t, err)
		assert.Equal(t, domain.CategoryId(4), gotId)
		assert.Equal(t, domain.Category{Id: 4, Name: "Neurologie"}, *c)
	})
}
