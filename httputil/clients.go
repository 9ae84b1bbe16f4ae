package httputil

import (
	"net/http"
	"net/url"

	"kiraye/config"
)

type Clients struct {
	API    *http.Client // JSON endpoints
	Upload *http.Client // multipart create/update, longer deadline
}

func NewClients(cfg config.APIConfig) *Clients {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.ProxyURL != "" {
		if proxyURL, err := url.Parse(cfg.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &Clients{
		API:    &http.Client{Timeout: cfg.RequestTimeout, Transport: transport},
		Upload: &http.Client{Timeout: cfg.UploadTimeout, Transport: transport},
	}
}
