// internal/core/services/auth_service_test.go
package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	redis_a "github.com/ammerola/bi-dashboard/internal/adapters/redis_adapter"
	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/services"
	"github.com/ammerola/bi-dashboard/test/helpers"
	"github.com/ammerola/bi-dashboard/test/mocks"
)

type authFixture struct {
	users   *mocks.MockUserRepository
	service *services.AuthService
}

func newAuthFixture(t *testing.T, allowAdmin bool) *authFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := helpers.TestLogger()
	r := helpers.SetupTestRedis(t)

	users := mocks.NewMockUserRepository(ctrl)
	tokens := services.NewTokenManager(services.TokenConfig{
		Secret:            "test-secret-key-for-testing-only-32",
		AccessExpiration:  time.Hour,
		RefreshExpiration: 24 * time.Hour,
	})
	blacklist := redis_a.NewTokenBlacklist(redis_a.NewCache(r.Client, time.Minute, logger))

	return &authFixture{
		users: users,
		service: services.NewAuthService(users, tokens, blacklist, services.AuthConfig{
			BcryptCost:             4,
			AllowAdminRegistration: allowAdmin,
		}, logger),
	}
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name       string
		allowAdmin bool
		input      domain.RegisterInput
		setupMocks func(*mocks.MockUserRepository)
		wantErr    error
		wantRole   domain.Role
	}{
		{
			name:  "defaults_to_viewer",
			input: domain.RegisterInput{Name: "Ann", Email: "ANN@example.com", Password: "secret1"},
			setupMocks: func(m *mocks.MockUserRepository) {
				m.EXPECT().Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, u *domain.User) error {
						assert.Equal(t, "ann@example.com", u.Email)
						assert.NotEqual(t, "secret1", u.PasswordHash)
						return nil
					})
			},
			wantRole: domain.RoleViewer,
		},
		{
			name:       "admin_not_allowed",
			input:      domain.RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1", Role: domain.RoleAdmin},
			setupMocks: func(m *mocks.MockUserRepository) {},
			wantErr:    domain.ErrForbidden,
		},
		{
			name:       "admin_allowed",
			allowAdmin: true,
			input:      domain.RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1", Role: domain.RoleAdmin},
			setupMocks: func(m *mocks.MockUserRepository) {
				m.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantRole: domain.RoleAdmin,
		},
		{
			name:       "short_password",
			input:      domain.RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "abc"},
			setupMocks: func(m *mocks.MockUserRepository) {},
			wantErr:    domain.ErrValidation,
		},
		{
			name:  "duplicate_email",
			input: domain.RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"},
			setupMocks: func(m *mocks.MockUserRepository) {
				m.EXPECT().Create(gomock.Any(), gomock.Any()).Return(domain.ErrDuplicate)
			},
			wantErr: domain.ErrDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t, tt.allowAdmin)
			tt.setupMocks(f.users)

			result, err := f.service.Register(context.Background(), tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, result.User.Role)
			assert.NotEmpty(t, result.Tokens.AccessToken)
			assert.NotEmpty(t, result.Tokens.RefreshToken)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	user := helpers.CreateTestUser(t, domain.RoleViewer, "secret1")

	tests := []struct {
		name       string
		email      string
		password   string
		setupMocks func(*mocks.MockUserRepository)
		wantErr    error
	}{
		{
			name:     "success_records_login",
			email:    user.Email,
			password: "secret1",
			setupMocks: func(m *mocks.MockUserRepository) {
				m.EXPECT().FindByEmail(gomock.Any(), user.Email).Return(user, nil)
				m.EXPECT().RecordLogin(gomock.Any(), user.ID, gomock.Any()).Return(nil)
			},
		},
		{
			name:     "login_record_failure_is_not_fatal",
			email:    user.Email,
			password: "secret1",
			setupMocks: func(m *mocks.MockUserRepository) {
				m.EXPECT().FindByEmail(gomock.Any(), user.Email).Return(user, nil)
				m.EXPECT().RecordLogin(gomock.Any(), user.ID, gomock.Any()).Return(errors.New("timeout"))
			},
		},
		{
			name:     "wrong_password",
			email:    user.Email,
			password: "nope123",
			setupMocks: func(m *mocks.MockUserRepository) {
				m.EXPECT().FindByEmail(gomock.Any(), user.Email).Return(user, nil)
			},
			wantErr: domain.ErrInvalidCredentials,
		},
		{
			name:     "unknown_email",
			email:    "ghost@example.com",
			password: "secret1",
			setupMocks: func(m *mocks.MockUserRepository) {
				m.EXPECT().FindByEmail(gomock.Any(), "ghost@example.com").Return(nil, domain.ErrNotFound)
			},
			wantErr: domain.ErrInvalidCredentials,
		},
		{
			name:       "missing_fields",
			email:      "",
			password:   "",
			setupMocks: func(m *mocks.MockUserRepository) {},
			wantErr:    domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t, false)
			tt.setupMocks(f.users)

			result, err := f.service.Login(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, user.ID, result.User.ID)
		})
	}
}

func TestAuthService_TokenLifecycle(t *testing.T) {
	f := newAuthFixture(t, false)
	ctx := context.Background()
	user := helpers.CreateTestUser(t, domain.RoleAdmin, "secret1")

	f.users.EXPECT().FindByEmail(gomock.Any(), user.Email).Return(user, nil)
	f.users.EXPECT().RecordLogin(gomock.Any(), user.ID, gomock.Any()).Return(nil)
	f.users.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil).AnyTimes()

	login, err := f.service.Login(ctx, user.Email, "secret1")
	require.NoError(t, err)

	authed, claims, err := f.service.Authenticate(ctx, login.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, _, err = f.service.Authenticate(ctx, login.Tokens.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidTokenType)

	refreshed, err := f.service.Refresh(ctx, login.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.Tokens.AccessToken, refreshed.Tokens.AccessToken)

	_, err = f.service.Refresh(ctx, login.Tokens.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked, "refresh tokens are single use")

	require.NoError(t, f.service.Logout(ctx, claims))
	_, _, err = f.service.Authenticate(ctx, login.Tokens.AccessToken)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked)

	_, _, err = f.service.Authenticate(ctx, refreshed.Tokens.AccessToken)
	assert.NoError(t, err)
}

func TestAuthService_AuthenticateDeletedUser(t *testing.T) {
	f := newAuthFixture(t, false)
	user := helpers.CreateTestUser(t, domain.RoleViewer, "secret1")

	f.users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	result, err := f.service.Register(context.Background(), domain.RegisterInput{
		Name: user.Name, Email: user.Email, Password: "secret1",
	})
	require.NoError(t, err)

	f.users.EXPECT().FindByID(gomock.Any(), result.User.ID).Return(nil, domain.ErrNotFound)
	_, _, err = f.service.Authenticate(context.Background(), result.Tokens.AccessToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestAuthService_UpdatePassword(t *testing.T) {
	user := helpers.CreateTestUser(t, domain.RoleViewer, "secret1")

	tests := []struct {
		name    string
		current string
		next    string
		update  bool
		wantErr error
	}{
		{name: "success", current: "secret1", next: "secret2", update: true},
		{name: "wrong_current", current: "wrong!", next: "secret2", wantErr: domain.ErrInvalidCredentials},
		{name: "short_new_password", current: "secret1", next: "abc", wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t, false)
			u := *user
			f.users.EXPECT().FindByID(gomock.Any(), user.ID).Return(&u, nil)
			if tt.update {
				f.users.EXPECT().Update(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, updated *domain.User) error {
						assert.True(t, updated.CheckPassword(tt.next))
						return nil
					})
			}

			result, err := f.service.UpdatePassword(context.Background(), user.ID, tt.current, tt.next)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, result.Tokens.AccessToken)
		})
	}
}

func TestAuthService_UpdateDetails(t *testing.T) {
	f := newAuthFixture(t, false)
	user := helpers.CreateTestUser(t, domain.RoleViewer, "secret1")

	f.users.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil).Times(2)
	f.users.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	updated, err := f.service.UpdateDetails(context.Background(), user.ID, " New Name ", "NEW@example.com")
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "new@example.com", updated.Email)

	_, err = f.service.UpdateDetails(context.Background(), user.ID, "", "not-an-email")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Len(t, domain.ValidationMessages(err), 2)
}
