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

type MockUserStorage struct {
	upsertFunc func(user domain.User) (domain.User, error)
	listFunc   func() ([]domain.User, error)

	roles    map[domain.UserId]domain.Role
	deleted  []domain.UserId
	stored   map[domain.UserId]domain.User
	profiles []domain.User
}

func (m *MockUserStorage) GetUser(ctx context.Context, id domain.UserId) (domain.User, error) {
	u, ok := m.stored[id]
	if !ok {
		return domain.User{}, shared_errors.NotFound("User not found")
	}
	return u, nil
}

func (m *MockUserStorage) UpdateProfile(ctx context.Context, user domain.User) (domain.User, error) {
	m.profiles = append(m.profiles, user)
	return user, nil
}

func (m *MockUserStorage) UpsertUser(ctx context.Context, user domain.User) (domain.User, error) {
	if m.upsertFunc != nil {
		return m.upsertFunc(user)
	}
	return user, nil
}

func (m *MockUserStorage) ListUsers(ctx context.Context) ([]domain.User, error) {
	if m.listFunc != nil {
		return m.listFunc()
	}
	return nil, nil
}

func (m *MockUserStorage) SetRole(ctx context.Context, id domain.UserId, role domain.Role) error {
	if m.roles == nil {
		m.roles = make(map[domain.UserId]domain.Role)
	}
	m.roles[id] = role
	return nil
}

func (m *MockUserStorage) DeleteUser(ctx context.Context, id domain.UserId) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func TestUserSync(t *testing.T) {
	storage := &MockUserStorage{upsertFunc: func(u domain.User) (domain.User, error) {
		u.Role = domain.RoleAdmin
		return u, nil
	}}
	svc := NewUser(storage)

	u, err := svc.Sync(context.Background(), domain.User{Id: "u1", Email: "a@b.cz"})
	require.NoError(t, err)
	assert.Equal(t, domain.AnonymousName, u.DisplayName)
	assert.Equal(t, domain.RoleAdmin, u.Role)
}

func TestUserList(t *testing.T) {
	svc := NewUser(&MockUserStorage{})
	users, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
}

func TestUserSetRole(t *testing.T) {
	ctx := context.Background()

	t.Run("promote", func(t *testing.T) {
		storage := &MockUserStorage{}
		svc := NewUser(storage)
		require.NoError(t, svc.SetRole(ctx, &testAdmin, "u2", domain.RoleAdmin))
		assert.Equal(t, domain.RoleAdmin, storage.roles["u2"])
	})

	t.Run("unknown role", func(t *testing.T) {
		storage := &MockUserStorage{}
		err := NewUser(storage).SetRole(ctx, &testAdmin, "u2", "moderator")
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
		assert.Empty(t, storage.roles)
	})

	t.Run("self demotion", func(t *testing.T) {
		storage := &MockUserStorage{}
		err := NewUser(storage).SetRole(ctx, &testAdmin, testAdmin.Id, domain.RoleUser)
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
		assert.Empty(t, storage.roles)
	})
}

func TestUserDelete(t *testing.T) {
	ctx := context.Background()
	storage := &MockUserStorage{}
	svc := NewUser(storage)

	err := svc.Delete(ctx, &testAdmin, testAdmin.Id)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	require.NoError(t, svc.Delete(ctx, &testAdmin, "u2"))
	assert.Equal(t, []domain.UserId{"u2"}, storage.deleted)
}

func TestUserProfile(t *testing.T) {
	ctx := context.Background()
	ptr := func(s string) *string { return &s }
	newStorage := func() *MockUserStorage {
		return &MockUserStorage{stored: map[domain.UserId]domain.User{
			testAuthor.Id: {Id: testAuthor.Id, Email: "jana@example.cz", DisplayName: "Jana", Role: domain.RoleUser},
		}}
	}

	t.Run("get own profile", func(t *testing.T) {
		u, err := NewUser(newStorage()).Profile(ctx, &testAuthor)
		require.NoError(t, err)
		assert.Equal(t, "jana@example.cz", u.Email)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := NewUser(newStorage()).Profile(ctx, &testOther)
		assert.Equal(t, http.StatusNotFound, statusOf(t, err))
	})

	t.Run("signed out", func(t *testing.T) {
		_, err := NewUser(newStorage()).Profile(ctx, nil)
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})

	t.Run("edit names and email", func(t *testing.T) {
		storage := newStorage()
		u, err := NewUser(storage).UpdateProfile(ctx, &testAuthor, domain.ProfileUpdateData{
			FirstName: ptr("  Jana "),
			LastName:  ptr("Nováková"),
			Email:     ptr("jana.novakova@example.cz"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Jana", u.FirstName)
		assert.Equal(t, "Nováková", u.LastName)
		assert.Equal(t, "Jana Nováková", u.DisplayName)
		assert.Equal(t, "jana.novakova@example.cz", u.Email)
		assert.Equal(t, domain.RoleUser, u.Role)
		require.Len(t, storage.profiles, 1)
	})

	t.Run("email only keeps display name", func(t *testing.T) {
		storage := newStorage()
		u, err := NewUser(storage).UpdateProfile(ctx, &testAuthor, domain.ProfileUpdateData{Email: ptr("new@example.cz")})
		require.NoError(t, err)
		assert.Equal(t, "Jana", u.DisplayName)
		assert.Equal(t, "new@example.cz", u.Email)
	})

	t.Run("blank name", func(t *testing.T) {
		storage := newStorage()
		_, err := NewUser(storage).UpdateProfile(ctx, &testAuthor, domain.ProfileUpdateData{LastName: ptr("  ")})
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
		assert.Empty(t, storage.profiles)
	})

	t.Run("no changes", func(t *testing.T) {
		storage := newStorage()
		u, err := NewUser(storage).UpdateProfile(ctx, &testAuthor, domain.ProfileUpdateData{})
		require.NoError(t, err)
		assert.Equal(t, "Jana", u.DisplayName)
		assert.Empty(t, storage.profiles)
	})
}
