package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService() (*UserService, *fakeUserStore) {
	store := newFakeUserStore()
	return NewUserService(store), store
}

func TestRegister(t *testing.T) {
	svc, _ := newUserService()

	t.Run("creates user and defaults display name", func(t *testing.T) {
		dto, err := svc.Register(&RegisterRequest{
			UserName: "alice",
			Email:    "alice@example.com",
			Password: "password123",
		})
		require.NoError(t, err)
		assert.Equal(t, "alice", dto.UserName)
		assert.Equal(t, "alice", dto.DisplayName)
		assert.NotZero(t, dto.ID)
	})

	t.Run("rejects duplicate username", func(t *testing.T) {
		_, err := svc.Register(&RegisterRequest{
			UserName: "alice",
			Email:    "other@example.com",
			Password: "password123",
		})
		require.Error(t, err)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		_, err := svc.Register(&RegisterRequest{
			UserName: "alice2",
			Email:    "alice@example.com",
			Password: "password123",
		})
		require.Error(t, err)
	})

	t.Run("rejects invalid username", func(t *testing.T) {
		_, err := svc.Register(&RegisterRequest{
			UserName: "a",
			Email:    "a@example.com",
			Password: "password123",
		})
		require.Error(t, err)
	})

	t.Run("rejects short password", func(t *testing.T) {
		_, err := svc.Register(&RegisterRequest{
			UserName: "bob",
			Email:    "bob@example.com",
			Password: "short",
		})
		require.Error(t, err)
	})
}

func TestLogin(t *testing.T) {
	svc, _ := newUserService()
	_, err := svc.Register(&RegisterRequest{
		UserName: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	t.Run("returns token on valid credentials", func(t *testing.T) {
		resp, err := svc.Login(&LoginRequest{UserName: "alice", Password: "password123"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "alice", resp.User.UserName)
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		_, err := svc.Login(&LoginRequest{UserName: "alice", Password: "wrongpass"})
		require.Error(t, err)
	})

	t.Run("rejects unknown user", func(t *testing.T) {
		_, err := svc.Login(&LoginRequest{UserName: "ghost", Password: "password123"})
		require.Error(t, err)
	})
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newUserService()
	dto, err := svc.Register(&RegisterRequest{
		UserName: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	t.Run("updates display name", func(t *testing.T) {
		updated, err := svc.UpdateProfile(dto.ID, &UpdateProfileRequest{DisplayName: "Alice W"})
		require.NoError(t, err)
		assert.Equal(t, "Alice W", updated.DisplayName)
	})

	t.Run("email never changes", func(t *testing.T) {
		updated, err := svc.UpdateProfile(dto.ID, &UpdateProfileRequest{UserName: "alice_w"})
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", updated.Email)
		assert.Equal(t, "alice_w", updated.UserName)
	})

	t.Run("rejects taken username", func(t *testing.T) {
		other, err := svc.Register(&RegisterRequest{
			UserName: "bob",
			Email:    "bob@example.com",
			Password: "password123",
		})
		require.NoError(t, err)

		_, err = svc.UpdateProfile(other.ID, &UpdateProfileRequest{UserName: "alice_w"})
		require.Error(t, err)
	})
}

func TestChangePassword(t *testing.T) {
	svc, _ := newUserService()
	dto, err := svc.Register(&RegisterRequest{
		UserName: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	t.Run("rejects wrong old password", func(t *testing.T) {
		err := svc.ChangePassword(dto.ID, &ChangePasswordRequest{
			OldPassword: "nope",
			NewPassword: "newpassword1",
		})
		require.Error(t, err)
	})

	t.Run("changes password and allows new login", func(t *testing.T) {
		err := svc.ChangePassword(dto.ID, &ChangePasswordRequest{
			OldPassword: "password123",
			NewPassword: "newpassword1",
		})
		require.NoError(t, err)

		_, err = svc.Login(&LoginRequest{UserName: "alice", Password: "newpassword1"})
		require.NoError(t, err)

		_, err = svc.Login(&LoginRequest{UserName: "alice", Password: "password123"})
		require.Error(t, err)
	})
}

func TestCancel(t *testing.T) {
	svc, _ := newUserService()
	dto, err := svc.Register(&RegisterRequest{
		UserName: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	require.Error(t, svc.Cancel(dto.ID, "wrongpass"))
	require.NoError(t, svc.Cancel(dto.ID, "password123"))

	_, err = svc.GetProfile(dto.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
