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

const userColumns = `id, email, display_name, first_name, last_name, role, created_at`

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.Id, &u.Email, &u.DisplayName, &u.FirstName, &u.LastName, &u.Role, &u.CreatedAt)
	return u, err
}

// =========================================================================
// Public Methods (satisfy the service.UserStorage interface)
// =========================================================================

// UpsertUser refreshes email and display name from the token unless the user
// edited the profile. The stored role is kept, except that an admin claim
// promotes the account. A role change recomputes the answered flags of the
// user's answers.
func (s *Storage) UpsertUser(ctx context.Context, user domain.User) (domain.User, error) {
	role := user.Role
	if role == "" {
		role = domain.RoleUser
	}
	var out domain.User
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var previous sql.NullString
		err := tx.QueryRowContext(ctx, `SELECT role FROM users WHERE id = $1 FOR UPDATE`, user.Id).Scan(&previous)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to read user role: %w", err)
		}

		out, err = scanUser(tx.QueryRowContext(ctx, `
			INSERT INTO users (id, email, display_name, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET
				email = CASE WHEN users.profile_edited THEN users.email ELSE EXCLUDED.email END,
				display_name = CASE WHEN users.profile_edited THEN users.display_name ELSE EXCLUDED.display_name END,
				role = CASE WHEN EXCLUDED.role = 'admin' THEN 'admin' ELSE users.role END,
				seen_at = now()
			RETURNING `+userColumns,
			user.Id, user.Email, user.DisplayName, role,
		))
		if err != nil {
			return fmt.Errorf("failed to upsert user: %w", err)
		}

		if previous.Valid && previous.String != out.Role {
			return s.refreshAnsweredByAuthor(ctx, tx, out.Id)
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return out, nil
}

func (s *Storage) GetUser(ctx context.Context, id domain.UserId) (domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, shared_errors.NotFound("User not found")
		}
		return domain.User{}, fmt.Errorf("failed to fetch user: %w", err)
	}
	return u, nil
}

// UpdateProfile stores the user's own edit and pins it against token
// refreshes.
func (s *Storage) UpdateProfile(ctx context.Context, user domain.User) (domain.User, error) {
	out, err := scanUser(s.db.QueryRowContext(ctx, `
		UPDATE users SET
			email = $2,
			display_name = $3,
			first_name = $4,
			last_name = $5,
			profile_edited = true
		WHERE id = $1
		RETURNING `+userColumns,
		user.Id, user.Email, user.DisplayName, user.FirstName, user.LastName,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, shared_errors.NotFound("User not found")
		}
		return domain.User{}, fmt.Errorf("failed to update profile: %w", err)
	}
	return out, nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return users, nil
}

// SetRole changes the role and recomputes the answered flags of every
// question the user has answered.
func (s *Storage) SetRole(ctx context.Context, id domain.UserId, role domain.Role) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, role)
		if err != nil {
			return fmt.Errorf("failed to set role: %w", err)
		}
		if err := expectAffected(result, "User not found"); err != nil {
			return err
		}
		return s.refreshAnsweredByAuthor(ctx, tx, id)
	})
}

// DeleteUser removes the local account only. Authored content keeps its
// author snapshot, but answers of a deleted admin no longer count as official.
func (s *Storage) DeleteUser(ctx context.Context, id domain.UserId) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.deleteUser(ctx, tx, id)
	})
}

// =========================================================================
// Private Methods (core logic, accept a Querier)
// =========================================================================

func (s *Storage) deleteUser(ctx context.Context, q pg.Querier, id domain.UserId) error {
	result, err := q.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if err := expectAffected(result, "User not found"); err != nil {
		return err
	}
	return s.refreshAnsweredByAuthor(ctx, q, id)
}
