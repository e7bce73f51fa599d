package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
	"github.com/ammerola/stockledger-be/internal/core/services"
	"github.com/ammerola/stockledger-be/test/helpers"
	"github.com/ammerola/stockledger-be/test/mocks"
)

func strPtr(s string) *string { return &s }

func TestUserAdminService_ListUsers(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)
	svc := services.NewUserAdminService(users, mocks.NewMockPasswordHasher(ctrl), helpers.TestLogger())

	users.EXPECT().ListByRole(gomock.Any(), domain.RoleUser).Return(nil, nil)

	list, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestUserAdminService_ToggleUser(t *testing.T) {
	tests := []struct {
		name          string
		user          *domain.User
		expectUpdate  bool
		expectEnabled bool
		expectedError error
	}{
		{
			name:          "disables_enabled_user",
			user:          helpers.CreateTestUser(),
			expectUpdate:  true,
			expectEnabled: false,
		},
		{
			name:          "enables_disabled_user",
			user:          helpers.CreateTestUser(func(u *domain.User) { u.Enabled = false }),
			expectUpdate:  true,
			expectEnabled: true,
		},
		{
			name:          "admins_are_protected",
			user:          helpers.CreateTestUser(func(u *domain.User) { u.Role = domain.RoleAdmin }),
			expectedError: domain.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			users := mocks.NewMockUserRepository(ctrl)
			svc := services.NewUserAdminService(users, mocks.NewMockPasswordHasher(ctrl), helpers.TestLogger())

			users.EXPECT().FindByID(gomock.Any(), tt.user.ID).Return(tt.user, nil)
			if tt.expectUpdate {
				users.EXPECT().Update(gomock.Any(), tt.user).Return(nil)
			}

			got, err := svc.ToggleUser(context.Background(), tt.user.ID)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectEnabled, got.Enabled)
			assert.Equal(t, !tt.expectEnabled, got.LeftAt != nil)
		})
	}
}

func TestUserAdminService_UpdateUser(t *testing.T) {
	tests := []struct {
		name          string
		patch         ports.UserPatch
		setupMocks    func(users *mocks.MockUserRepository, hasher *mocks.MockPasswordHasher, user *domain.User)
		expectedError error
		check         func(t *testing.T, u *domain.User)
	}{
		{
			name:  "renames_user",
			patch: ports.UserPatch{FirstName: strPtr("Maria")},
			setupMocks: func(users *mocks.MockUserRepository, _ *mocks.MockPasswordHasher, user *domain.User) {
				users.EXPECT().Update(gomock.Any(), user).Return(nil)
			},
			check: func(t *testing.T, u *domain.User) {
				assert.Equal(t, "Maria", u.FirstName)
			},
		},
		{
			name:  "email_taken_by_other_user",
			patch: ports.UserPatch{Email: strPtr("taken@example.com")},
			setupMocks: func(users *mocks.MockUserRepository, _ *mocks.MockPasswordHasher, user *domain.User) {
				users.EXPECT().EmailTaken(gomock.Any(), "taken@example.com", user.ID).Return(true, nil)
			},
			expectedError: domain.ErrEmailTaken,
		},
		{
			name:  "rehashes_new_password",
			patch: ports.UserPatch{Password: strPtr("brand-new-pass"), Email: strPtr("NEW@example.com")},
			setupMocks: func(users *mocks.MockUserRepository, hasher *mocks.MockPasswordHasher, user *domain.User) {
				users.EXPECT().EmailTaken(gomock.Any(), "new@example.com", user.ID).Return(false, nil)
				hasher.EXPECT().Hash("brand-new-pass").Return("rehashed", nil)
				users.EXPECT().Update(gomock.Any(), user).Return(nil)
			},
			check: func(t *testing.T, u *domain.User) {
				assert.Equal(t, "rehashed", u.PasswordHash)
				assert.Equal(t, "new@example.com", u.Email)
			},
		},
		{
			name:          "blank_last_name",
			patch:         ports.UserPatch{LastName: strPtr("  ")},
			setupMocks:    func(*mocks.MockUserRepository, *mocks.MockPasswordHasher, *domain.User) {},
			expectedError: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			users := mocks.NewMockUserRepository(ctrl)
			hasher := mocks.NewMockPasswordHasher(ctrl)
			svc := services.NewUserAdminService(users, hasher, helpers.TestLogger())
			user := helpers.CreateTestUser()

			users.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)
			tt.setupMocks(users, hasher, user)

			got, err := svc.UpdateUser(context.Background(), user.ID, tt.patch)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}
