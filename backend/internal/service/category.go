package service

import (
	"context"
	"strings"

	"github.com/poradna-dev/poradna/shared/domain"
	shared_errors "github.com/poradna-dev/poradna/shared/errors"
)

type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
	Create(ctx context.Context, name domain.CategoryName) (*domain.Category, error)
	Rename(ctx context.Context, id domain.CategoryId, name domain.CategoryName) (*domain.Category, error)
	Delete(ctx context.Context, id domain.CategoryId) error
}

// CategoryStorage reports duplicate names as a 409 ErrorWithStatusCode.
type CategoryStorage interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, name domain.CategoryName) (domain.CategoryId, error)
	RenameCategory(ctx context.Context, id domain.CategoryId, name domain.CategoryName) error
	DeleteCategory(ctx context.Context, id domain.CategoryId) error
}

type Category struct {
	storage CategoryStorage
}

func NewCategory(storage CategoryStorage) CategoryService {
	return &Category{storage}
}

func (c *Category) List(ctx context.Context) ([]domain.Category, error) {
	categories, err := c.storage.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}

func (c *Category) Create(ctx context.Context, name domain.CategoryName) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared_errors.BadRequest("Category name is required")
	}
	id, err := c.storage.CreateCategory(ctx, name)
	if err != nil {
		return nil, err
	}
	return &domain.Category{Id: id, Name: name}, nil
}

func (c *Category) Rename(ctx context.Context, id domain.CategoryId, name domain.CategoryName) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared_errors.BadRequest("Category name is required")
	}
	if err := c.storage.RenameCategory(ctx, id, name); err != nil {
		return nil, err
	}
	return &domain.Category{Id: id, Name: name}, nil
}

// Delete also removes the category from every question tagged with it.
func (c *Category) Delete(ctx context.Context, id domain.CategoryId) error {
	return c.storage.DeleteCategory(ctx, id)
}
