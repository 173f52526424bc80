// pkg/download/transport.go
package download

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
)

// Transport fetches the resource at uri into w.
type Transport interface {
	Fetch(ctx context.Context, uri string, w io.Writer) error
}

// Router picks a transport by URI scheme. URIs without a scheme are local paths.
type Router struct {
	transports map[string]Transport
}

// NewRouter routes http and https to web and everything local to a FileTransport.
func NewRouter(web Transport) *Router {
	local := FileTransport{}
	return &Router{transports: map[string]Transport{
		"http":  web,
		"https": web,
		"file":  local,
		"":      local,
	}}
}

func (r *Router) Fetch(ctx context.Context, uri string, w io.Writer) error {
	t, ok := r.transports[scheme(uri)]
	if !ok {
		return fmt.Errorf("unsupported URI scheme in %s", uri)
	}
	return t.Fetch(ctx, uri, w)
}

// FileTransport copies local files.
type FileTransport struct{}

func (FileTransport) Fetch(ctx context.Context, uri string, w io.Writer) error {
	path := strings.TrimPrefix(uri, "file://")

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(w, &ctxReader{ctx: ctx, r: f}); err != nil {
		return fmt.Errorf("copying %s: %w", path, err)
	}
	return nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func scheme(uri string) string {
	if !strings.Contains(uri, "://") {
		return ""
	}
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Scheme)
}

func host(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return u.Host
}
