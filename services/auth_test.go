package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"kiraye/api"
	"kiraye/logging"
	"kiraye/models"
)

func newAuth(env *testEnv) *Auth {
	return NewAuth(env.client, env.session, env.store, logging.Discard())
}

func TestAuth_LoginStoresSession(t *testing.T) {
	env := newEnv(t)
	a := newAuth(env)

	require.NoError(t, a.Login(context.Background(), "aysel@mail.az", "secret1"))
	id := env.session.Identity()
	require.True(t, id.LoggedIn())
	require.Equal(t, "Aysel", id.UserName)
	require.Equal(t, models.RoleUser, id.Role)

	a.Logout()
	require.False(t, env.session.LoggedIn())
}

func TestAuth_LoginFailures(t *testing.T) {
	env := newEnv(t)
	a := newAuth(env)

	err := a.Login(context.Background(), "", "")
	require.ErrorIs(t, err, &api.Error{Kind: api.KindValidation})
	require.Zero(t, env.srv.Total())

	err = a.Login(context.Background(), "aysel@mail.az", "nope")
	require.EqualError(t, err, "Email or password is incorrect")
	require.False(t, env.session.LoggedIn())

	env.srv.Responses["/Auth/Login"] = `{"token":"not-a-jwt"}`
	err = a.Login(context.Background(), "aysel@mail.az", "secret1")
	require.Error(t, err)
	require.False(t, env.session.LoggedIn())
}

func TestAuth_RegisterValidation(t *testing.T) {
	env := newEnv(t)
	a := newAuth(env)

	_, err := a.Register(context.Background(), RegisterInput{
		Name: "Aysel", Email: "aysel@mail.az", Phone: "050", Password: "secret1", ConfirmPassword: "secret2",
	})
	apiErr, ok := api.As(err)
	require.True(t, ok)
	require.Equal(t, "Passwords do not match.", apiErr.FieldError("password"))
	require.NotEmpty(t, apiErr.FieldError("phone"))
	require.Zero(t, env.srv.Total())

	resp, err := a.Register(context.Background(), RegisterInput{
		Name: "Aysel", Email: "aysel@mail.az", Phone: "+994 50 123 45 67", Password: "secret1", ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	require.Equal(t, "Registered.", resp.Message)
}

func TestAuth_ResetPasswordChecks(t *testing.T) {
	env := newEnv(t)
	a := newAuth(env)
	ctx := context.Background()

	tests := []struct {
		password, repeat, want string
	}{
		{"", "abcdef", "Please fill in both password fields."},
		{"abcdef", "abcdeg", "Passwords do not match."},
		{"abc", "abc", "Password should be at least 6 characters."},
	}
	for _, tt := range tests {
		_, err := a.ResetPassword(ctx, "reset-token", tt.password, tt.repeat)
		require.EqualError(t, err, tt.want)
	}
	require.Zero(t, env.srv.Total())

	msg, err := a.ResetPassword(ctx, "reset-token", "abcdef", "abcdef")
	require.NoError(t, err)
	require.Equal(t, "Password reset.", msg)
}

func TestAuth_PrivilegedCallsNeedSession(t *testing.T) {
	env := newEnv(t)
	a := newAuth(env)
	ctx := context.Background()

	_, err := a.ChangePassword(ctx, "old", "abcdef", "abcdef")
	require.ErrorIs(t, err, api.ErrUnauthenticated)
	require.ErrorIs(t, a.DeleteAccount(ctx), api.ErrUnauthenticated)
	require.Zero(t, env.srv.Total())

	env.login(t, "u1")
	msg, err := a.ChangePassword(ctx, "old", "abcdef", "abcdef")
	require.NoError(t, err)
	require.Equal(t, "Password changed.", msg)

	require.NoError(t, a.DeleteAccount(ctx))
	require.False(t, env.session.LoggedIn())
}

func TestAuth_ConfirmMakler(t *testing.T) {
	env := newEnv(t)
	a := newAuth(env)
	ctx := context.Background()

	_, err := a.ConfirmMakler(ctx, "")
	require.EqualError(t, err, "Session ID is missing in the URL.")

	res, err := a.ConfirmMakler(ctx, "cs_1")
	require.NoError(t, err)
	require.True(t, res.Confirmed)
	require.Equal(t, "Confirmed.", res.Message)

	// replayed from local state
	res, err = a.ConfirmMakler(ctx, "cs_1")
	require.NoError(t, err)
	require.Equal(t, "Confirmed.", res.Message)
	require.Len(t, env.srv.Requests("/Auth/ConfirmMakler"), 1)

	env.srv.Fail("/Auth/ConfirmMakler", http.StatusBadRequest, "text/plain", "Email is already taken.")
	res, err = a.ConfirmMakler(ctx, "cs_2")
	require.NoError(t, err)
	require.False(t, res.Confirmed)
	require.Equal(t, "Email is already taken.", res.Message)

	env.srv.Fail("/Auth/ConfirmMakler", http.StatusBadRequest, "text/plain", "Payment not completed")
	_, err = a.ConfirmMakler(ctx, "cs_3")
	require.EqualError(t, err, "Payment not completed")
}

func TestAuth_ForgotPassword(t *testing.T) {
	env := newEnv(t)
	a := newAuth(env)

	_, err := a.ForgotPassword(context.Background(), "  ")
	require.Error(t, err)

	msg, err := a.ForgotPassword(context.Background(), "aysel@mail.az")
	require.NoError(t, err)
	require.Equal(t, api.DefaultForgotMessage, msg)
}
