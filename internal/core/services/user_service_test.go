// internal/core/services/user_service_test.go
package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/services"
	"github.com/ammerola/bi-dashboard/test/helpers"
	"github.com/ammerola/bi-dashboard/test/mocks"
)

func newUserService(t *testing.T) (*services.UserService, *mocks.MockUserRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUserRepository(ctrl)
	return services.NewUserService(repo, 4, helpers.TestLogger()), repo
}

func TestUserService_Create(t *testing.T) {
	tests := []struct {
		name     string
		input    domain.CreateUserInput
		create   bool
		wantErr  error
		wantMsgs int
	}{
		{
			name:   "admin_account",
			input:  domain.CreateUserInput{Name: "Root", Email: "root@example.com", Password: "secret1", Role: domain.RoleAdmin},
			create: true,
		},
		{
			name:    "invalid_role_and_email",
			input:   domain.CreateUserInput{Name: "Root", Email: "nope", Password: "secret1", Role: "owner"},
			wantErr: domain.ErrValidation,
			// email and role
			wantMsgs: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo := newUserService(t)
			if tt.create {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
			}

			user, err := service.Create(context.Background(), tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Len(t, domain.ValidationMessages(err), tt.wantMsgs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input.Role, user.Role)
			assert.True(t, user.CheckPassword(tt.input.Password))
		})
	}
}

func TestUserService_Update(t *testing.T) {
	service, repo := newUserService(t)
	user := helpers.CreateTestUser(t, domain.RoleViewer, "secret1")
	originalEmail := user.Email

	role := domain.RoleAdmin
	name := "Promoted"

	repo.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)
	repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	updated, err := service.Update(context.Background(), user.ID, domain.UpdateUserInput{Name: &name, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "Promoted", updated.Name)
	assert.Equal(t, domain.RoleAdmin, updated.Role)
	assert.Equal(t, originalEmail, updated.Email)
}

func TestUserService_UpdateMissing(t *testing.T) {
	service, repo := newUserService(t)
	id := uuid.New()

	repo.EXPECT().FindByID(gomock.Any(), id).Return(nil, domain.ErrNotFound)

	_, err := service.Update(context.Background(), id, domain.UpdateUserInput{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserService_Delete(t *testing.T) {
	actor := uuid.New()
	other := uuid.New()

	tests := []struct {
		name       string
		target     uuid.UUID
		setupMocks func(*mocks.MockUserRepository)
		wantErr    error
	}{
		{
			name:   "deletes_other_account",
			target: other,
			setupMocks: func(m *mocks.MockUserRepository) {
				m.EXPECT().Delete(gomock.Any(), other).Return(nil)
			},
		},
		{
			name:       "cannot_delete_self",
			target:     actor,
			setupMocks: func(m *mocks.MockUserRepository) {},
			wantErr:    domain.ErrForbidden,
		},
		{
			name:   "missing_account",
			target: other,
			setupMocks: func(m *mocks.MockUserRepository) {
				m.EXPECT().Delete(gomock.Any(), other).Return(domain.ErrNotFound)
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo := newUserService(t)
			tt.setupMocks(repo)

			err := service.Delete(context.Background(), actor, tt.target)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestUserService_ListAndStats(t *testing.T) {
	service, repo := newUserService(t)
	page := domain.NewPagination(1, 10)

	repo.EXPECT().List(gomock.Any(), page).Return(nil, int64(0), nil)
	repo.EXPECT().Stats(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, since time.Time) (*domain.UserStats, error) {
			assert.WithinDuration(t, time.Now().Add(-services.RecentSignupWindow), since, time.Minute)
			return &domain.UserStats{Total: 3, ByRole: map[domain.Role]int64{domain.RoleAdmin: 1, domain.RoleViewer: 2}}, nil
		})

	users, info, err := service.List(context.Background(), page)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Equal(t, 0, info.TotalPages)

	stats, err := service.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
}
