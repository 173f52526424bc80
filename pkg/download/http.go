// pkg/download/http.go
package download

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime"
	"time"
)

// HTTPTransport fetches over HTTP(S).
type HTTPTransport struct {
	httpClient *http.Client
	userAgent  string
}

// NewHTTPTransport creates a transport that keeps at most perHost
// connections to any one host. timeout bounds connecting, the TLS handshake
// and waiting for response headers; reading the body is not bounded.
func NewHTTPTransport(timeout time.Duration, perHost int) *HTTPTransport {
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}
	return &HTTPTransport{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           dialer.DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   perHost,
				MaxConnsPerHost:       perHost,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		userAgent: fmt.Sprintf("nouzen/1.0 (%s)", runtime.GOOS),
	}
}

// Get performs an HTTP GET request and checks the status.
func (t *HTTPTransport) Get(ctx context.Context, uri string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, classify(fmt.Errorf("performing request: %w", err))
	}

	if err := checkStatus(uri, resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return resp, nil
}

// Fetch downloads uri into w. Truncated bodies are reported as retryable.
func (t *HTTPTransport) Fetch(ctx context.Context, uri string, w io.Writer) error {
	resp, err := t.Get(ctx, uri)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	written, err := io.Copy(w, resp.Body)
	if err != nil {
		return classify(fmt.Errorf("reading body of %s: %w", uri, err))
	}

	if resp.ContentLength >= 0 && written != resp.ContentLength {
		return &RetryableError{Err: fmt.Errorf("partial transfer of %s: got %d of %d bytes: %w", uri, written, resp.ContentLength, io.ErrUnexpectedEOF)}
	}

	return nil
}
