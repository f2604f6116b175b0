package service

import (
	"context"
	"strings"

	"github.com/poradna-dev/poradna/shared/domain"
	shared_errors "github.com/poradna-dev/poradna/shared/errors"
	"github.com/poradna-dev/poradna/shared/logger"
)

type UserService interface {
	Sync(ctx context.Context, user domain.User) (domain.User, error)
	Profile(ctx context.Context, actor *domain.User) (domain.User, error)
	UpdateProfile(ctx context.Context, actor *domain.User, data domain.ProfileUpdateData) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	SetRole(ctx context.Context, actor *domain.User, id domain.UserId, role domain.Role) error
	Delete(ctx context.Context, actor *domain.User, id domain.UserId) error
}

type UserStorage interface {
	// UpsertUser refreshes email and display name and keeps the stored role.
	UpsertUser(ctx context.Context, user domain.User) (domain.User, error)
	GetUser(ctx context.Context, id domain.UserId) (domain.User, error)
	UpdateProfile(ctx context.Context, user domain.User) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	SetRole(ctx context.Context, id domain.UserId, role domain.Role) error
	DeleteUser(ctx context.Context, id domain.UserId) error
}

type User struct {
	storage UserStorage
}

func NewUser(storage UserStorage) UserService {
	return &User{storage}
}

func (u *User) Sync(ctx context.Context, user domain.User) (domain.User, error) {
	if user.DisplayName == "" {
		user.DisplayName = domain.AnonymousName
	}
	return u.storage.UpsertUser(ctx, user)
}

// Profile returns the signed-in user's stored account.
func (u *User) Profile(ctx context.Context, actor *domain.User) (domain.User, error) {
	if actor == nil {
		return domain.User{}, shared_errors.Unauthorized("Please sign-in")
	}
	return u.storage.GetUser(ctx, actor.Id)
}

// UpdateProfile applies the user's own edit. Names must not be blank and the
// display name becomes "first last".
func (u *User) UpdateProfile(ctx context.Context, actor *domain.User, data domain.ProfileUpdateData) (domain.User, error) {
	current, err := u.Profile(ctx, actor)
	if err != nil {
		return domain.User{}, err
	}
	if data.FirstName == nil && data.LastName == nil && data.Email == nil {
		return current, nil
	}

	if data.FirstName != nil {
		name := strings.TrimSpace(*data.FirstName)
		if name == "" {
			return domain.User{}, shared_errors.BadRequest("First name must not be blank")
		}
		current.FirstName = name
	}
	if data.LastName != nil {
		name := strings.TrimSpace(*data.LastName)
		if name == "" {
			return domain.User{}, shared_errors.BadRequest("Last name must not be blank")
		}
		current.LastName = name
	}
	if data.Email != nil {
		email := strings.TrimSpace(*data.Email)
		if email == "" {
			return domain.User{}, shared_errors.BadRequest("Email must not be blank")
		}
		current.Email = email
	}
	if full := strings.TrimSpace(current.FirstName + " " + current.LastName); full != "" {
		current.DisplayName = full
	}

	updated, err := u.storage.UpdateProfile(ctx, current)
	if err != nil {
		return domain.User{}, err
	}
	logger.Log.Info("profile updated", "uid", updated.Id)
	return updated, nil
}

func (u *User) List(ctx context.Context) ([]domain.User, error) {
	users, err := u.storage.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (u *User) SetRole(ctx context.Context, actor *domain.User, id domain.UserId, role domain.Role) error {
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return shared_errors.BadRequest("Unknown role")
	}
	if actor != nil && actor.Id == id && role != domain.RoleAdmin {
		return shared_errors.BadRequest("Admins can't demote themselves")
	}
	if err := u.storage.SetRole(ctx, id, role); err != nil {
		return err
	}
	logger.Log.Info("user role changed", "uid", id, "role", role, "by", actorId(actor))
	return nil
}

// Delete removes the local account. Questions and answers keep their author
// snapshot.
func (u *User) Delete(ctx context.Context, actor *domain.User, id domain.UserId) error {
	if actor != nil && actor.Id == id {
		return shared_errors.BadRequest("Admins can't delete themselves")
	}
	if err := u.storage.DeleteUser(ctx, id); err != nil {
		return err
	}
	logger.Log.Info("user deleted", "uid", id, "by", actorId(actor))
	return nil
}

func actorId(actor *domain.User) domain.UserId {
	if actor == nil {
		return ""
	}
	return actor.Id
}
