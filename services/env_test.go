package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kiraye/api"
	"kiraye/api/apitest"
	"kiraye/logging"
	"kiraye/session"
	"kiraye/storage"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type testEnv struct {
	srv     *apitest.Server
	client  *api.Client
	store   *storage.SQLiteStore
	session *session.State
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	srv := apitest.New()
	t.Cleanup(srv.Close)

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &testEnv{
		srv:     srv,
		client:  api.NewWithHTTPClient(srv.URL, srv.Client(), 2*time.Second, logging.Discard()),
		store:   store,
		session: session.New(store, logging.Discard()),
	}
}

func (e *testEnv) login(t *testing.T, userID string) {
	t.Helper()
	require.True(t, e.session.Login(apitest.Token(userID, "User", time.Hour), session.Profile{UserName: "Aysel"}))
}
