package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"kiraye/api"
	"kiraye/logging"
	"kiraye/models"
)

func loadProfile(t *testing.T, env *testEnv) *Profile {
	t.Helper()
	p := NewProfile(env.client, env.session, logging.Discard())
	req, err := p.Load()
	require.NoError(t, err)
	require.True(t, p.Apply(p.Fetch(context.Background(), req)))
	return p
}

func TestProfile_LoggedOutFailsFast(t *testing.T) {
	env := newEnv(t)
	env.login(t, "u1")
	env.session.Logout()

	p := NewProfile(env.client, env.session, logging.Discard())
	_, err := p.Load()
	require.ErrorIs(t, err, api.ErrUnauthenticated)
	require.Equal(t, "You must be logged in.", api.Message(err))
	require.ErrorIs(t, p.Err(), api.ErrUnauthenticated)

	_, err = p.BeginDelete(1)
	require.ErrorIs(t, err, api.ErrUnauthenticated)

	require.Zero(t, env.srv.Total())
}

func TestProfile_LoadsOwnListings(t *testing.T) {
	env := newEnv(t)
	env.login(t, "u1")
	env.srv.Listings = []models.Listing{{ID: 1, OwnerID: "u1"}, {ID: 2, OwnerID: "u2"}, {ID: 3, OwnerID: "u1"}}

	p := loadProfile(t, env)
	require.Equal(t, []int{1, 3}, ids(p.Items()))
	require.False(t, p.Loading())
	require.True(t, p.Owns(models.Listing{ID: 3}))
	require.False(t, p.Owns(models.Listing{ID: 2, OwnerID: "u2"}))
	require.True(t, p.Owns(models.Listing{ID: 9, OwnerID: "u1"}))
}

func TestProfile_DeleteIsGatedByOwnership(t *testing.T) {
	env := newEnv(t)
	env.login(t, "u1")
	env.srv.Listings = []models.Listing{{ID: 1, OwnerID: "u1"}, {ID: 2, OwnerID: "u2"}}
	p := loadProfile(t, env)

	_, err := p.BeginDelete(2)
	require.ErrorIs(t, err, ErrNotOwner)
	require.Empty(t, env.srv.Requests("/House/SoftDelete/2"))

	req, err := p.BeginDelete(1)
	require.NoError(t, err)
	require.Empty(t, p.Items(), "removed before the server answers")

	err = p.SoftDelete(context.Background(), req.ID)
	require.True(t, p.FinishDelete(req, err))
	require.NoError(t, err)
	require.Equal(t, DeletedNotice, p.Notice())
	require.Len(t, env.srv.Requests("/House/SoftDelete/1"), 1)
}

func TestProfile_FailedDeleteRestores(t *testing.T) {
	env := newEnv(t)
	env.login(t, "u1")
	env.srv.Listings = []models.Listing{{ID: 1, OwnerID: "u1"}, {ID: 2, OwnerID: "u1"}, {ID: 3, OwnerID: "u1"}}
	p := loadProfile(t, env)

	req, err := p.BeginDelete(2)
	require.NoError(t, err)
	require.True(t, p.FinishDelete(req, errors.New("server said no")))

	require.Equal(t, []int{1, 2, 3}, ids(p.Items()))
	require.Error(t, p.Err())
	require.Empty(t, p.Notice())
}

func TestProfile_StaleLoadDropped(t *testing.T) {
	env := newEnv(t)
	env.login(t, "u1")
	p := NewProfile(env.client, env.session, logging.Discard())

	first, _ := p.Load()
	p.Reset()
	require.False(t, p.Apply(OwnResponse{Request: first, Items: []models.Listing{{ID: 1}}}))
	require.Empty(t, p.Items())
}

func TestProfile_LateDeleteFailureAfterReload(t *testing.T) {
	env := newEnv(t)
	env.login(t, "u1")
	env.srv.Listings = []models.Listing{{ID: 1, OwnerID: "u1"}, {ID: 2, OwnerID: "u1"}, {ID: 3, OwnerID: "u1"}}
	p := loadProfile(t, env)

	del, err := p.BeginDelete(2)
	require.NoError(t, err)

	reload, err := p.Load()
	require.NoError(t, err)
	require.True(t, p.Apply(p.Fetch(context.Background(), reload)))
	require.Equal(t, []int{1, 2, 3}, ids(p.Items()))

	require.False(t, p.FinishDelete(del, errors.New("server said no")))
	require.Equal(t, []int{1, 2, 3}, ids(p.Items()))
	require.NoError(t, p.Err())
}
