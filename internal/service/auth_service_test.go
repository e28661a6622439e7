package service_test

import (
	"context"
	"testing"

	"drawerledger/internal/config"
	"drawerledger/internal/dto"
	"drawerledger/internal/model"
	"drawerledger/internal/repository"
	"drawerledger/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeOperatorRepo struct {
	operators map[string]*model.Operator
}

func newFakeOperatorRepo() *fakeOperatorRepo {
	return &fakeOperatorRepo{operators: make(map[string]*model.Operator)}
}

func (r *fakeOperatorRepo) Create(_ context.Context, o *model.Operator) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	r.operators[o.Username] = o
	return nil
}

func (r *fakeOperatorRepo) FindByUsername(_ context.Context, username string) (*model.Operator, error) {
	o, ok := r.operators[username]
	if !ok || !o.Active {
		return nil, nil
	}
	return o, nil
}

func (r *fakeOperatorRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Operator, error) {
	for _, o := range r.operators {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, nil
}

var _ repository.OperatorRepository = (*fakeOperatorRepo)(nil)

func testAuthConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 1,
		JWTRefreshHours:    24,
	}
}

func seedOperator(t *testing.T, repo *fakeOperatorRepo, username, password string) *model.Operator {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	op := &model.Operator{
		Username:     username,
		Name:         "Test Operator",
		PasswordHash: string(hash),
		Role:         "cashier",
		Active:       true,
	}
	require.NoError(t, repo.Create(context.Background(), op))
	return op
}

func TestLoginSuccess(t *testing.T) {
	repo := newFakeOperatorRepo()
	seedOperator(t, repo, "maria", "s3cret")
	svc := service.NewAuthService(repo, testAuthConfig())

	resp, err := svc.Login(context.Background(), dto.LoginRequest{
		Username: "maria", Password: "s3cret",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, "maria", resp.Operator.Username)
	assert.Equal(t, "cashier", resp.Operator.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeOperatorRepo()
	seedOperator(t, repo, "maria", "s3cret")
	svc := service.NewAuthService(repo, testAuthConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Username: "maria", Password: "wrong",
	})
	assert.ErrorContains(t, err, "invalid credentials")
}

func TestLoginUnknownUser(t *testing.T) {
	svc := service.NewAuthService(newFakeOperatorRepo(), testAuthConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Username: "ghost", Password: "whatever",
	})
	assert.ErrorContains(t, err, "invalid credentials")
}

func TestLoginInactiveOperator(t *testing.T) {
	repo := newFakeOperatorRepo()
	op := seedOperator(t, repo, "maria", "s3cret")
	op.Active = false
	svc := service.NewAuthService(repo, testAuthConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Username: "maria", Password: "s3cret",
	})
	assert.ErrorContains(t, err, "invalid credentials")
}

func TestRefresh(t *testing.T) {
	repo := newFakeOperatorRepo()
	seedOperator(t, repo, "maria", "s3cret")
	svc := service.NewAuthService(repo, testAuthConfig())
	ctx := context.Background()

	login, err := svc.Login(ctx, dto.LoginRequest{Username: "maria", Password: "s3cret"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, "maria", refreshed.Operator.Username)
}

func TestRefreshGarbageToken(t *testing.T) {
	svc := service.NewAuthService(newFakeOperatorRepo(), testAuthConfig())

	_, err := svc.Refresh(context.Background(), "not-a-jwt")
	assert.Error(t, err)
}
