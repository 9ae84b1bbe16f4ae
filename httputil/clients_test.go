package httputil

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kiraye/config"
)

func TestNewClients(t *testing.T) {
	c := NewClients(config.APIConfig{
		RequestTimeout: 5 * time.Second,
		UploadTimeout:  time.Minute,
		ProxyURL:       "http://127.0.0.1:8888",
	})

	require.Equal(t, 5*time.Second, c.API.Timeout)
	require.Equal(t, time.Minute, c.Upload.Timeout)

	req, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
	proxy, err := c.API.Transport.(*http.Transport).Proxy(req)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8888", proxy.Host)
}
