package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/keys"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	usersrepo "github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

type fakeUsersRepo struct {
	created *models.User
	getIn   string
	getOut  *models.User
	getErr  error
	err     error
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = u
	u.ID = "1"
	return u, nil
}

func (f *fakeUsersRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.getIn = email
	return f.getOut, f.getErr
}

type fakeRepoMgr struct {
	users usersrepo.Repository
	keys  keys.Repository
}

func (m *fakeRepoMgr) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoMgr) Users(dbx.DBTX) usersrepo.Repository          { return m.users }
func (m *fakeRepoMgr) Keys(*sql.DB) keys.Repository                 { return m.keys }

var _ repomanager.RepositoryManager = (*fakeRepoMgr)(nil)

// --- tests ---

func TestUserService_CreateHashesPassword(t *testing.T) {
	repo := &fakeUsersRepo{}
	svc := NewUserService(nil, &fakeRepoMgr{users: repo})

	u, err := svc.Create(context.Background(), &models.NewUser{
		Email:      "  Alice@Example.COM ",
		Password:   "password",
		Attributes: map[string]string{"name": "Alice"},
	})
	require.NoError(t, err)
	assert.Equal(t, "1", u.ID)
	assert.Equal(t, "alice@example.com", repo.created.Email)
	assert.Equal(t, "Alice", repo.created.Attributes["name"])
	assert.NotEqual(t, []byte("password"), repo.created.PasswordHash)
	assert.True(t, cryptox.CheckPassword(repo.created.PasswordHash, []byte("password")))
}

func TestUserService_CreateValidation(t *testing.T) {
	svc := NewUserService(nil, &fakeRepoMgr{users: &fakeUsersRepo{}})

	tests := []struct {
		name string
		in   *models.NewUser
	}{
		{name: "nil", in: nil},
		{name: "empty email", in: &models.NewUser{Password: "p"}},
		{name: "no at sign", in: &models.NewUser{Email: "alice", Password: "p"}},
		{name: "empty password", in: &models.NewUser{Email: "a@b.c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestUserService_CreateDuplicate(t *testing.T) {
	svc := NewUserService(nil, &fakeRepoMgr{users: &fakeUsersRepo{err: common.ErrorAlreadyExists}})

	_, err := svc.Create(context.Background(), &models.NewUser{Email: "a@b.c", Password: "p"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestUserService_GetUserByEmail(t *testing.T) {
	repo := &fakeUsersRepo{getOut: &models.User{ID: "7"}}
	svc := NewUserService(nil, &fakeRepoMgr{users: repo})

	u, err := svc.GetUserByEmail(context.Background(), " A@B.C")
	require.NoError(t, err)
	assert.Equal(t, "7", u.ID)
	assert.Equal(t, "a@b.c", repo.getIn)

	repo.getErr = common.ErrorNotFound
	_, err = svc.GetUserByEmail(context.Background(), "x@y.z")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	repo.getErr = errors.New("db down")
	_, err = svc.GetUserByEmail(context.Background(), "x@y.z")
	assert.ErrorContains(t, err, "db down")
}

func TestUserService_WithPostgresRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewUserService(db, repomanager.NewPostgresRepositoryManager())

	mock.ExpectQuery(`SELECT id, email, password_hash, attributes, created_at FROM users`).
		WithArgs("alice@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err = svc.GetUserByEmail(context.Background(), "Alice@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
