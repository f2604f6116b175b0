package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/poradna-dev/poradna/shared/domain"
	shared_errors "github.com/poradna-dev/poradna/shared/errors"
	"github.com/poradna-dev/poradna/shared/storage/pg"
)

func (s *Storage) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.Id, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return categories, nil
}

func (s *Storage) CreateCategory(ctx context.Context, name domain.CategoryName) (domain.CategoryId, error) {
	var id domain.CategoryId
	err := s.db.QueryRowContext(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		if pg.IsUniqueViolation(err) {
			return 0, shared_errors.Conflict("Category already exists")
		}
		return 0, fmt.Errorf("failed to insert category: %w", err)
	}
	return id, nil
}

func (s *Storage) RenameCategory(ctx context.Context, id domain.CategoryId, name domain.CategoryName) error {
	result, err := s.db.ExecContext(ctx, `UPDATE categories SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		if pg.IsUniqueViolation(err) {
			return shared_errors.Conflict("Category already exists")
		}
		return fmt.Errorf("failed to rename category: %w", err)
	}
	return expectAffected(result, "Category not found")
}

// DeleteCategory untags every question carrying the category before
// removing it.
func (s *Storage) DeleteCategory(ctx context.Context, id domain.CategoryId) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE questions SET categories = array_remove(categories, $1::int8) WHERE $1::int8 = ANY(categories)`, id); err != nil {
			return fmt.Errorf("failed to untag questions: %w", err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return expectAffected(result, "Category not found")
	})
}
