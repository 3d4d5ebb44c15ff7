package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/repositories"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]models.User
}

var _ repositories.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int]models.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func TestRegisterCreatesViewer(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)

	user, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Viewer",
		Email:    "  Viewer@Example.COM ",
		Password: "long-enough",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleViewer, user.Role)
	assert.Equal(t, "viewer@example.com", user.Email)
	assert.Empty(t, user.PasswordHash, "hash must not leak to callers")

	stored, err := repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())

	_, err := svc.Register(context.Background(), RegisterInput{Email: "not-an-email", Password: "long-enough"})
	require.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.Register(context.Background(), RegisterInput{Email: "a@b.c", Password: "short"})
	require.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())
	input := RegisterInput{Email: "a@b.c", Password: "long-enough"}

	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), input)
	require.ErrorIs(t, err, ErrUserEmailConflict)
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)
	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.c", Password: "long-enough"})
	require.NoError(t, err)

	user, err := svc.Login(context.Background(), LoginInput{Email: "A@B.C", Password: "long-enough"})
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.Login(context.Background(), LoginInput{Email: "a@b.c", Password: "wrong-password"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginInput{Email: "missing@b.c", Password: "long-enough"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

// EnsureAdmin идемпотентен: повторный запуск процесса не плодит админов
// и не падает.
func TestEnsureAdmin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)

	require.NoError(t, svc.EnsureAdmin(context.Background(), "admin@league.io", "super-secret"))
	require.NoError(t, svc.EnsureAdmin(context.Background(), "admin@league.io", "super-secret"))

	admin, err := repo.GetByEmail(context.Background(), "admin@league.io")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Len(t, repo.users, 1)

	// Пустая конфигурация — админ не заводится, это не ошибка.
	empty := newFakeUserRepo()
	require.NoError(t, NewAuthService(empty).EnsureAdmin(context.Background(), "", ""))
	assert.Empty(t, empty.users)
}
