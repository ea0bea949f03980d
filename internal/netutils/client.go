package netutils

import (
	"crypto/tls"
	"net/http"
	"time"
)

// NewHTTPClient returns the client every backend request goes through. A zero
// timeout leaves requests unbounded; cancellation comes from the caller's context.
// insecure skips certificate verification for self-signed development backends.
func NewHTTPClient(insecure bool, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
