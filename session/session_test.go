package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"kiraye/api"
	"kiraye/api/apitest"
	"kiraye/logging"
	"kiraye/models"
	"kiraye/storage"
)

func newState(t *testing.T) (*State, *storage.SQLiteStore) {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store, logging.Discard()), store
}

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

func TestLogin_DecodesRoleAndPersists(t *testing.T) {
	s, store := newState(t)

	ok := s.Login(apitest.Token("u1", "Makler", time.Hour), Profile{UserName: "Aysel", Phone: "0501234567"})
	require.True(t, ok)
	require.True(t, s.LoggedIn())
	require.Equal(t, models.RoleMakler, s.Role())
	require.Equal(t, "u1", s.Identity().UserID)

	v, found, err := store.Get("userName")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Aysel", v)
}

func TestLogin_MalformedTokenIsLoggedOut(t *testing.T) {
	s, store := newState(t)

	for _, tok := range []string{"", "not-a-jwt", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.bm9wZQ.sig"} {
		require.NotPanics(t, func() {
			require.False(t, s.Login(tok, Profile{UserName: "x"}))
		})
		require.False(t, s.LoggedIn())
		require.Equal(t, models.RoleNone, s.Role())
	}

	_, found, err := store.Get("token")
	require.NoError(t, err)
	require.False(t, found)
}

func TestLogin_ExpiredToken(t *testing.T) {
	s, _ := newState(t)
	require.False(t, s.Login(apitest.Token("u1", "User", -time.Minute), Profile{}))
	require.False(t, s.LoggedIn())
}

func TestRequireToken_ExpiryDuringSession(t *testing.T) {
	s, store := newState(t)
	require.True(t, s.Login(apitest.Token("u1", "User", time.Hour), Profile{UserName: "Aysel"}))

	var events []Event
	s.Subscribe(func(e Event) { events = append(events, e) })

	tok, err := s.RequireToken()
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	require.False(t, s.LoggedIn())

	_, err = s.RequireToken()
	require.ErrorIs(t, err, api.ErrUnauthenticated)
	require.False(t, s.Identity().LoggedIn())
	require.Len(t, events, 1)
	require.False(t, events[0].Identity.LoggedIn())

	_, found, err := store.Get("token")
	require.NoError(t, err)
	require.False(t, found)
}

func TestLogin_RoleVariants(t *testing.T) {
	s, _ := newState(t)

	require.True(t, s.Login(sign(t, jwt.MapClaims{"sub": "9", "role": []any{"User", "Admin"}}), Profile{}))
	require.Equal(t, models.RoleAdmin, s.Role())

	require.True(t, s.Login(sign(t, jwt.MapClaims{"nameid": 42.0, "unique_name": "Rashad"}), Profile{}))
	require.Equal(t, models.RoleUser, s.Role())
	require.Equal(t, "42", s.Identity().UserID)
	require.Equal(t, "Rashad", s.Identity().UserName)
}

func TestLogout_ClearsSynchronously(t *testing.T) {
	s, store := newState(t)
	require.True(t, s.Login(apitest.Token("u1", "User", time.Hour), Profile{UserName: "Aysel"}))

	s.Logout()

	require.False(t, s.LoggedIn())
	require.Equal(t, models.Identity{}, s.Identity())
	_, err := s.RequireToken()
	require.ErrorIs(t, err, api.ErrUnauthenticated)

	_, found, _ := store.Get("token")
	require.False(t, found)
}

func TestRestore(t *testing.T) {
	s, store := newState(t)
	require.True(t, s.Login(apitest.Token("u1", "User", time.Hour), Profile{UserName: "Aysel", Email: "a@b.az"}))

	reloaded := New(store, logging.Discard())
	require.NoError(t, reloaded.Restore())
	require.True(t, reloaded.LoggedIn())
	require.Equal(t, "a@b.az", reloaded.Identity().Email)

	require.NoError(t, store.Set("token", "garbage"))
	broken := New(store, logging.Discard())
	require.NoError(t, broken.Restore())
	require.False(t, broken.LoggedIn())
	_, found, _ := store.Get("userName")
	require.False(t, found)
}

func TestSubscribe(t *testing.T) {
	s := New(nil, logging.Discard())

	var events []Event
	cancel := s.Subscribe(func(e Event) { events = append(events, e) })

	s.Login(apitest.Token("u1", "User", time.Hour), Profile{})
	s.Logout()
	require.Len(t, events, 2)
	require.True(t, events[0].Identity.LoggedIn())
	require.False(t, events[1].Identity.LoggedIn())

	cancel()
	s.Logout()
	require.Len(t, events, 2)
}
