package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/poradna-dev/poradna/shared/domain"
	shared_errors "github.com/poradna-dev/poradna/shared/errors"
	"github.com/poradna-dev/poradna/shared/storage/pg"
)

// =========================================================================
// Public Methods (satisfy the service.QuestionStorage interface)
// =========================================================================

// CreateQuestion inserts the question together with its attachment list in a
// single statement.
func (s *Storage) CreateQuestion(ctx context.Context, title domain.QuestionTitle, text domain.Text, categories domain.CategoryIds, author domain.Author, attachments domain.Attachments) (domain.QuestionId, error) {
	return s.createQuestion(ctx, s.db, title, text, categories, author, attachments)
}

// GetQuestion returns the question with its answers ordered by creation time.
func (s *Storage) GetQuestion(ctx context.Context, id domain.QuestionId) (*domain.Question, error) {
	var q *domain.Question
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if q, err = s.question(ctx, tx, id); err != nil {
			return err
		}
		q.Answers, err = s.answers(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ListQuestions returns one page of questions, newest first, and the total
// number of questions matching the filter.
func (s *Storage) ListQuestions(ctx context.Context, filter domain.ArchiveFilter, limit, offset int) ([]domain.Question, int, error) {
	return s.listQuestions(ctx, s.db, filter, limit, offset)
}

func (s *Storage) UpdateQuestion(ctx context.Context, data domain.QuestionUpdateData) error {
	return s.updateQuestion(ctx, s.db, data)
}

// DeleteQuestion removes the question; answers go with it through ON DELETE CASCADE.
func (s *Storage) DeleteQuestion(ctx context.Context, id domain.QuestionId) error {
	return s.deleteQuestion(ctx, s.db, id)
}

// MissingCategories returns the ids from ids that name no category.
func (s *Storage) MissingCategories(ctx context.Context, ids domain.CategoryIds) (domain.CategoryIds, error) {
	return s.missingCategories(ctx, s.db, ids)
}

// =========================================================================
// Private Methods (core logic, accept a Querier)
// =========================================================================

func (s *Storage) createQuestion(ctx context.Context, q pg.Querier, title domain.QuestionTitle, text domain.Text, categories domain.CategoryIds, author domain.Author, attachments domain.Attachments) (domain.QuestionId, error) {
	if categories == nil {
		categories = domain.CategoryIds{}
	}
	var id domain.QuestionId
	err := q.QueryRowContext(ctx, `
		INSERT INTO questions (title, text, categories, author_uid, author_email, author_name, attachments)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		title, text, pq.Array(categories), author.Uid, author.Email, author.DisplayName, attachments,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert question: %w", err)
	}
	return id, nil
}

const questionColumns = `id, title, text, categories, author_uid, author_email, author_name, attachments, is_answered, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (*domain.Question, error) {
	var (
		q          domain.Question
		categories pq.Int64Array
	)
	err := row.Scan(
		&q.Id, &q.Title, &q.Text, &categories,
		&q.Author.Uid, &q.Author.Email, &q.Author.DisplayName,
		&q.Attachments, &q.IsAnswered, &q.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	q.Categories = domain.CategoryIds(categories)
	if q.Categories == nil {
		q.Categories = domain.CategoryIds{}
	}
	return &q, nil
}

func (s *Storage) question(ctx context.Context, q pg.Querier, id domain.QuestionId) (*domain.Question, error) {
	question, err := scanQuestion(q.QueryRowContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared_errors.NotFound("Question not found")
		}
		return nil, fmt.Errorf("failed to fetch question: %w", err)
	}
	return question, nil
}

func (s *Storage) listQuestions(ctx context.Context, q pg.Querier, filter domain.ArchiveFilter, limit, offset int) ([]domain.Question, int, error) {
	var category any
	if filter.Category != nil {
		category = *filter.Category
	}
	var pattern any
	if filter.Query != "" {
		pattern = containsPattern(filter.Query)
	}
	const where = `
		WHERE ($1::int8 IS NULL OR $1 = ANY(categories))
		  AND ($2::text IS NULL OR title ILIKE $2 OR text ILIKE $2)`

	var total int
	if err := q.QueryRowContext(ctx, `SELECT count(*) FROM questions`+where, category, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM questions`+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`,
		category, pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, *question)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}
	return questions, total, nil
}

func (s *Storage) updateQuestion(ctx context.Context, q pg.Querier, data domain.QuestionUpdateData) error {
	var categories any
	if data.Categories != nil {
		c := *data.Categories
		if c == nil {
			c = domain.CategoryIds{}
		}
		categories = pq.Array(c)
	}
	result, err := q.ExecContext(ctx, `
		UPDATE questions SET
			title = COALESCE($2::text, title),
			text = COALESCE($3::text, text),
			categories = COALESCE($4::int8[], categories),
			modified_at = now()
		WHERE id = $1`,
		data.Id, data.Title, data.Text, categories,
	)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	return expectAffected(result, "Question not found")
}

func (s *Storage) deleteQuestion(ctx context.Context, q pg.Querier, id domain.QuestionId) error {
	result, err := q.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return expectAffected(result, "Question not found")
}

func (s *Storage) missingCategories(ctx context.Context, q pg.Querier, ids domain.CategoryIds) (domain.CategoryIds, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT DISTINCT x FROM unnest($1::int8[]) AS x
		WHERE NOT EXISTS (SELECT 1 FROM categories c WHERE c.id = x)
		ORDER BY x`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to check categories: %w", err)
	}
	defer rows.Close()

	var missing domain.CategoryIds
	for rows.Next() {
		var id domain.CategoryId
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan category id: %w", err)
		}
		missing = append(missing, id)
	}
	return missing, rows.Err()
}

func expectAffected(result sql.Result, notFound string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return shared_errors.NotFound(notFound)
	}
	return nil
}
