package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
)

func TestUsers_RoleGate(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/users", "viewer", nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "User role viewer is not authorized to access this route", decode(t, w).Message)
}

func TestUsers_List(t *testing.T) {
	f := newAPIFixture(t)
	f.users.EXPECT().
		List(gomock.Any(), domain.Pagination{Page: 1, Limit: 10}).
		Return([]*domain.User{testAdmin, testViewer}, domain.PageInfo{Page: 1, Limit: 10, Total: 2, TotalPages: 1}, nil)

	w := f.do(t, http.MethodGet, "/api/users", "admin", nil)
	require.Equal(t, http.StatusOK, w.Code)

	env := decode(t, w)
	require.NotNil(t, env.Pagination)
	assert.EqualValues(t, 2, env.Pagination.Total)
}

func TestUsers_Create(t *testing.T) {
	t.Run("role_required", func(t *testing.T) {
		f := newAPIFixture(t)

		w := f.do(t, http.MethodPost, "/api/users", "admin",
			map[string]string{"name": "Ann", "email": "ann@example.com", "password": "secret123"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []string{"Role must be either admin or viewer"}, decode(t, w).Errors)
	})

	t.Run("created", func(t *testing.T) {
		f := newAPIFixture(t)
		f.users.EXPECT().
			Create(gomock.Any(), domain.CreateUserInput{Name: "Ann", Email: "ann@example.com", Password: "secret123", Role: domain.RoleAdmin}).
			Return(&domain.User{ID: uuid.New(), Name: "Ann", Role: domain.RoleAdmin}, nil)

		w := f.do(t, http.MethodPost, "/api/users", "admin",
			map[string]string{"name": "Ann", "email": "ann@example.com", "password": "secret123", "role": "admin"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestUsers_Update(t *testing.T) {
	f := newAPIFixture(t)
	id := uuid.New()

	f.users.EXPECT().
		Update(gomock.Any(), id, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, input domain.UpdateUserInput) (*domain.User, error) {
			require.NotNil(t, input.Role)
			assert.Equal(t, domain.RoleViewer, *input.Role)
			assert.Nil(t, input.Name)
			assert.Nil(t, input.Email)
			return &domain.User{ID: id, Role: domain.RoleViewer}, nil
		})

	w := f.do(t, http.MethodPut, "/api/users/"+id.String(), "admin", map[string]string{"role": "viewer"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUsers_GetAndDelete(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		id      func() string
		setup   func(f *apiFixture, id string)
		code    int
		message string
	}{
		{
			name:    "malformed_id",
			method:  http.MethodGet,
			id:      func() string { return "42" },
			setup:   func(*apiFixture, string) {},
			code:    http.StatusBadRequest,
			message: "Validation failed",
		},
		{
			name:   "missing_user",
			method: http.MethodGet,
			id:     uuid.NewString,
			setup: func(f *apiFixture, id string) {
				f.users.EXPECT().Get(gomock.Any(), uuid.MustParse(id)).Return(nil, domain.ErrNotFound)
			},
			code:    http.StatusNotFound,
			message: "Resource not found",
		},
		{
			name:   "delete_self",
			method: http.MethodDelete,
			id:     testAdmin.ID.String,
			setup: func(f *apiFixture, id string) {
				f.users.EXPECT().
					Delete(gomock.Any(), testAdmin.ID, testAdmin.ID).
					Return(fmt.Errorf("%w: cannot delete your own account", domain.ErrForbidden))
			},
			code:    http.StatusForbidden,
			message: "cannot delete your own account",
		},
		{
			name:   "delete_other",
			method: http.MethodDelete,
			id:     testViewer.ID.String,
			setup: func(f *apiFixture, id string) {
				f.users.EXPECT().Delete(gomock.Any(), testAdmin.ID, testViewer.ID).Return(nil)
			},
			code: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t)
			id := tt.id()
			tt.setup(f, id)

			w := f.do(t, tt.method, "/api/users/"+id, "admin", nil)
			require.Equal(t, tt.code, w.Code, w.Body.String())
			if tt.message != "" {
				assert.Equal(t, tt.message, decode(t, w).Message)
			}
		})
	}
}

func TestUsers_Stats(t *testing.T) {
	f := newAPIFixture(t)
	f.users.EXPECT().Stats(gomock.Any()).Return(&domain.UserStats{}, nil)

	w := f.do(t, http.MethodGet, "/api/users/stats/overview", "admin", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
