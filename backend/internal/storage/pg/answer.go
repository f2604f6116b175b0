package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/poradna-dev/poradna/shared/domain"
	shared_errors "github.com/poradna-dev/poradna/shared/errors"
	"github.com/poradna-dev/poradna/shared/storage/pg"
)

// =========================================================================
// Public Methods (satisfy the service.AnswerStorage interface)
// =========================================================================

func (s *Storage) QuestionExists(ctx context.Context, id domain.QuestionId) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM questions WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check question: %w", err)
	}
	return exists, nil
}

// CreateAnswer inserts the answer and recomputes the question's answered
// flag in the same transaction.
func (s *Storage) CreateAnswer(ctx context.Context, questionId domain.QuestionId, text domain.Text, author domain.Author, attachments domain.Attachments) (domain.AnswerId, error) {
	var id domain.AnswerId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if id, err = s.createAnswer(ctx, tx, questionId, text, author, attachments); err != nil {
			return err
		}
		return s.refreshAnswered(ctx, tx, questionId)
	})
	return id, err
}

func (s *Storage) GetAnswer(ctx context.Context, questionId domain.QuestionId, id domain.AnswerId) (*domain.Answer, error) {
	return s.answer(ctx, s.db, questionId, id)
}

// UpdateAnswer replaces the text and, when attachments is non-nil, the
// attachment list.
func (s *Storage) UpdateAnswer(ctx context.Context, questionId domain.QuestionId, id domain.AnswerId, text domain.Text, attachments *domain.Attachments) error {
	return s.updateAnswer(ctx, s.db, questionId, id, text, attachments)
}

func (s *Storage) DeleteAnswer(ctx context.Context, questionId domain.QuestionId, id domain.AnswerId) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.deleteAnswer(ctx, tx, questionId, id); err != nil {
			return err
		}
		return s.refreshAnswered(ctx, tx, questionId)
	})
}

// =========================================================================
// Private Methods (core logic, accept a Querier)
// =========================================================================

func (s *Storage) createAnswer(ctx context.Context, q pg.Querier, questionId domain.QuestionId, text domain.Text, author domain.Author, attachments domain.Attachments) (domain.AnswerId, error) {
	var id domain.AnswerId
	err := q.QueryRowContext(ctx, `
		INSERT INTO answers (question_id, text, author_uid, author_email, author_name, attachments)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		questionId, text, author.Uid, author.Email, author.DisplayName, attachments,
	).Scan(&id)
	if err != nil {
		if pg.IsForeignKeyViolation(err) {
			return 0, shared_errors.NotFound("Question not found")
		}
		return 0, fmt.Errorf("failed to insert answer: %w", err)
	}
	return id, nil
}

// answeredByAdmin is true when any answer of questions.id comes from a user
// whose current role is admin.
const answeredByAdmin = `EXISTS (
	SELECT 1 FROM answers a JOIN users u ON u.id = a.author_uid
	WHERE a.question_id = questions.id AND u.role = 'admin'
)`

// refreshAnswered recomputes is_answered of one question.
func (s *Storage) refreshAnswered(ctx context.Context, q pg.Querier, questionId domain.QuestionId) error {
	_, err := q.ExecContext(ctx, `UPDATE questions SET is_answered = `+answeredByAdmin+` WHERE id = $1`, questionId)
	if err != nil {
		return fmt.Errorf("failed to update answered flag: %w", err)
	}
	return nil
}

// refreshAnsweredByAuthor recomputes is_answered of every question the user
// has answered. Called after the user's role changes.
func (s *Storage) refreshAnsweredByAuthor(ctx context.Context, q pg.Querier, uid domain.UserId) error {
	_, err := q.ExecContext(ctx, `
		UPDATE questions SET is_answered = `+answeredByAdmin+`
		WHERE id IN (SELECT question_id FROM answers WHERE author_uid = $1)`,
		uid,
	)
	if err != nil {
		return fmt.Errorf("failed to update answered flags: %w", err)
	}
	return nil
}

const answerColumns = `id, question_id, text, author_uid, author_email, author_name,
	EXISTS (SELECT 1 FROM users u WHERE u.id = answers.author_uid AND u.role = 'admin'),
	attachments, created_at, modified_at`

func scanAnswer(row rowScanner) (*domain.Answer, error) {
	var a domain.Answer
	err := row.Scan(
		&a.Id, &a.QuestionId, &a.Text,
		&a.Author.Uid, &a.Author.Email, &a.Author.DisplayName, &a.Author.Admin,
		&a.Attachments, &a.CreatedAt, &a.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Storage) answer(ctx context.Context, q pg.Querier, questionId domain.QuestionId, id domain.AnswerId) (*domain.Answer, error) {
	a, err := scanAnswer(q.QueryRowContext(ctx,
		`SELECT `+answerColumns+` FROM answers WHERE question_id = $1 AND id = $2`, questionId, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared_errors.NotFound("Answer not found")
		}
		return nil, fmt.Errorf("failed to fetch answer: %w", err)
	}
	return a, nil
}

func (s *Storage) answers(ctx context.Context, q pg.Querier, questionId domain.QuestionId) ([]domain.Answer, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+answerColumns+` FROM answers WHERE question_id = $1 ORDER BY created_at, id`, questionId)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch answers: %w", err)
	}
	defer rows.Close()

	var answers []domain.Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return answers, nil
}

func (s *Storage) updateAnswer(ctx context.Context, q pg.Querier, questionId domain.QuestionId, id domain.AnswerId, text domain.Text, attachments *domain.Attachments) error {
	var replacement any
	if attachments != nil {
		replacement = *attachments
	}
	result, err := q.ExecContext(ctx, `
		UPDATE answers SET
			text = $3,
			attachments = COALESCE($4::jsonb, attachments),
			modified_at = now()
		WHERE question_id = $1 AND id = $2`,
		questionId, id, text, replacement,
	)
	if err != nil {
		return fmt.Errorf("failed to update answer: %w", err)
	}
	return expectAffected(result, "Answer not found")
}

func (s *Storage) deleteAnswer(ctx context.Context, q pg.Querier, questionId domain.QuestionId, id domain.AnswerId) error {
	result, err := q.ExecContext(ctx, `DELETE FROM answers WHERE question_id = $1 AND id = $2`, questionId, id)
	if err != nil {
		return fmt.Errorf("failed to delete answer: %w", err)
	}
	return expectAffected(result, "Answer not found")
}
