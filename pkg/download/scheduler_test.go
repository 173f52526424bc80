package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/nouzen/pkg/store"
)

type fakeTransport struct {
	mu    sync.Mutex
	calls map[string]int
	fn    func(uri string, call int, w io.Writer) error
	delay time.Duration

	current, peak int32
}

func newFake(fn func(uri string, call int, w io.Writer) error) *fakeTransport {
	return &fakeTransport{calls: make(map[string]int), fn: fn}
}

func (f *fakeTransport) Fetch(ctx context.Context, uri string, w io.Writer) error {
	n := atomic.AddInt32(&f.current, 1)
	defer atomic.AddInt32(&f.current, -1)
	for {
		peak := atomic.LoadInt32(&f.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&f.peak, peak, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls[uri]++
	call := f.calls[uri]
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.fn(uri, call, w)
}

func (f *fakeTransport) callCount(uri string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[uri]
}

type progressLog struct {
	mu    sync.Mutex
	calls [][2]int
}

func (p *progressLog) record(total, completed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, [2]int{total, completed})
}

func jobs(dir string, names ...string) []Job {
	out := make([]Job, len(names))
	for i, name := range names {
		out[i] = Job{
			Ref:     store.Ref{Index: i},
			Package: name,
			URI:     "http://mirror.test/pool/" + name + ".deb",
			Path:    filepath.Join(dir, name+".deb"),
		}
	}
	return out
}

func TestRunRetriesAndRewinds(t *testing.T) {
	dir := t.TempDir()
	fake := newFake(func(uri string, call int, w io.Writer) error {
		if call <= 2 {
			fmt.Fprint(w, "garbage from a broken attempt")
			return &RetryableError{Err: io.ErrUnexpectedEOF}
		}
		_, err := fmt.Fprint(w, "payload")
		return err
	})
	progress := &progressLog{}

	s := New(fake, Options{Concurrency: 2, Retries: 3, Progress: progress.record}, nil)
	require.NoError(t, s.Run(context.Background(), jobs(dir, "a")))

	data, err := os.ReadFile(filepath.Join(dir, "a.deb"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.Equal(t, 3, fake.callCount("http://mirror.test/pool/a.deb"))
	assert.Equal(t, [][2]int{{1, 0}, {1, 1}}, progress.calls)
}

func TestRunGivesUpAfterRetryLimit(t *testing.T) {
	fake := newFake(func(uri string, call int, w io.Writer) error {
		return &RetryableError{Err: &StatusError{URI: uri, StatusCode: http.StatusServiceUnavailable}}
	})

	s := New(fake, Options{Concurrency: 1, Retries: 2}, nil)
	err := s.Run(context.Background(), jobs(t.TempDir(), "a"))

	var batch *BatchError
	require.True(t, errors.As(err, &batch))
	assert.Equal(t, "a", batch.Package)
	assert.Equal(t, 3, batch.Attempts)
	assert.True(t, batch.Retryable)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestRunFailsFast(t *testing.T) {
	dir := t.TempDir()
	fake := newFake(func(uri string, call int, w io.Writer) error {
		if uri == "http://mirror.test/pool/b.deb" {
			return &StatusError{URI: uri, StatusCode: http.StatusNotFound}
		}
		_, err := fmt.Fprint(w, "ok")
		return err
	})
	progress := &progressLog{}

	s := New(fake, Options{Concurrency: 1, Retries: 5, Progress: progress.record}, nil)
	err := s.Run(context.Background(), jobs(dir, "a", "b", "c"))

	var batch *BatchError
	require.True(t, errors.As(err, &batch))
	assert.Equal(t, "b", batch.Package)
	assert.False(t, batch.Retryable)
	assert.Equal(t, 1, batch.Attempts)

	// a finished before the failure and is kept; c never started.
	data, err := os.ReadFile(filepath.Join(dir, "a.deb"))
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	assert.Equal(t, 0, fake.callCount("http://mirror.test/pool/c.deb"))
	assert.NoFileExists(t, filepath.Join(dir, "c.deb"))
	assert.Equal(t, 1, fake.callCount("http://mirror.test/pool/b.deb"))
	assert.Equal(t, [][2]int{{3, 0}, {3, 1}}, progress.calls)
}

func TestRunRespectsConcurrency(t *testing.T) {
	fake := newFake(func(uri string, call int, w io.Writer) error { return nil })
	fake.delay = 20 * time.Millisecond

	names := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	s := New(fake, Options{Concurrency: 3, PerHost: 10}, nil)
	require.NoError(t, s.Run(context.Background(), jobs(t.TempDir(), names...)))

	assert.LessOrEqual(t, atomic.LoadInt32(&fake.peak), int32(3))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&fake.peak), int32(1))
}

func TestRunCreatesOutputsWhenAdmitted(t *testing.T) {
	dir := t.TempDir()
	var seen []int
	fake := newFake(func(uri string, call int, w io.Writer) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		seen = append(seen, len(entries))
		_, err = fmt.Fprint(w, "ok")
		return err
	})

	s := New(fake, Options{Concurrency: 1, PerHost: 1}, nil)
	require.NoError(t, s.Run(context.Background(), jobs(dir, "a", "b", "c", "d")))

	// Each transfer only sees the outputs of itself and those before it.
	assert.Equal(t, []int{1, 2, 3, 4}, seen)
	for _, name := range []string{"a", "b", "c", "d"} {
		data, err := os.ReadFile(filepath.Join(dir, name+".deb"))
		require.NoError(t, err)
		assert.Equal(t, "ok", string(data))
	}
}

func TestRunCreateFailureStopsBatch(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	fake := newFake(func(uri string, call int, w io.Writer) error { return nil })
	js := jobs(dir, "a", "b")
	js[1].Path = filepath.Join(blocker, "b.deb")

	s := New(fake, Options{Concurrency: 1, PerHost: 1}, nil)
	err := s.Run(context.Background(), js)

	var batch *BatchError
	require.True(t, errors.As(err, &batch))
	assert.Equal(t, "b", batch.Package)
	assert.FileExists(t, filepath.Join(dir, "a.deb"))
	assert.Equal(t, 0, fake.callCount(js[1].URI))
}

func TestRunRespectsPerHost(t *testing.T) {
	dir := t.TempDir()
	var mu sync.Mutex
	current := map[string]int{}
	peak := map[string]int{}

	fake := newFake(func(uri string, call int, w io.Writer) error {
		h := host(uri)
		mu.Lock()
		current[h]++
		if current[h] > peak[h] {
			peak[h] = current[h]
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		current[h]--
		mu.Unlock()
		return nil
	})

	var js []Job
	for i := 0; i < 6; i++ {
		h := "one.test"
		if i%2 == 1 {
			h = "two.test"
		}
		js = append(js, Job{
			Package: fmt.Sprintf("p%d", i),
			URI:     fmt.Sprintf("http://%s/p%d.deb", h, i),
			Path:    filepath.Join(dir, fmt.Sprintf("p%d.deb", i)),
		})
	}

	s := New(fake, Options{Concurrency: 4, PerHost: 1}, nil)
	require.NoError(t, s.Run(context.Background(), js))

	assert.LessOrEqual(t, peak["one.test"], 1)
	assert.LessOrEqual(t, peak["two.test"], 1)
	assert.LessOrEqual(t, atomic.LoadInt32(&fake.peak), int32(2))
}

func TestRunEmptyBatch(t *testing.T) {
	progress := &progressLog{}
	s := New(newFake(nil), Options{Progress: progress.record}, nil)
	require.NoError(t, s.Run(context.Background(), nil))
	assert.Equal(t, [][2]int{{0, 0}}, progress.calls)
}

func TestPlanSelectsPackagesToFetch(t *testing.T) {
	repo := &store.Repository{Type: store.APT}
	fresh := store.NewPackage("fresh", "1")
	current := store.NewPackage("current", "1")
	current.Installed = true
	stale := store.NewPackage("stale", "2")
	stale.Installed = true
	stale.Upgradable = true
	gone := store.NewPackage("gone", "1")
	gone.Obsolete = true

	var refs []store.Ref
	for _, p := range []*store.Package{fresh, current, stale, gone} {
		p.URI = "http://mirror.test/" + p.Name + ".deb"
		refs = append(refs, repo.Add(p))
	}
	list := store.NewRepoList()
	list.Add(repo)

	s := New(newFake(nil), Options{Dir: "/tmp/dl"}, nil)
	planned := s.Plan(list, store.NewSet(refs...))

	require.Len(t, planned, 2)
	assert.Equal(t, "fresh", planned[0].Package)
	assert.Equal(t, "/tmp/dl/fresh.deb", planned[0].Path)
	assert.Equal(t, "stale", planned[1].Package)
}

func TestHTTPTransportClassification(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/flaky.deb":
			if atomic.AddInt32(&hits, 1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			fmt.Fprint(w, "deb contents")
		case "/short.deb":
			w.Header().Set("Content-Length", "100")
			fmt.Fprint(w, "only a bit")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	transport := NewHTTPTransport(5*time.Second, 2)

	err := transport.Fetch(context.Background(), srv.URL+"/missing.deb", io.Discard)
	var status *StatusError
	require.True(t, errors.As(err, &status))
	assert.Equal(t, http.StatusNotFound, status.StatusCode)
	assert.False(t, IsRetryable(err))

	err = transport.Fetch(context.Background(), srv.URL+"/short.deb", io.Discard)
	assert.True(t, IsRetryable(err), "truncated body should be retryable: %v", err)

	dir := t.TempDir()
	s := New(transport, Options{Concurrency: 1, Retries: 1}, nil)
	require.NoError(t, s.Run(context.Background(), []Job{{
		Package: "flaky",
		URI:     srv.URL + "/flaky.deb",
		Path:    filepath.Join(dir, "flaky.deb"),
	}}))

	data, err := os.ReadFile(filepath.Join(dir, "flaky.deb"))
	require.NoError(t, err)
	assert.Equal(t, "deb contents", string(data))
}

func TestHTTPTransportSlowBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for i := 0; i < 6; i++ {
			fmt.Fprintf(w, "chunk%d;", i)
			flusher.Flush()
			time.Sleep(100 * time.Millisecond)
		}
	}))
	defer srv.Close()

	// The body takes twice the timeout to arrive; only the headers are bounded.
	transport := NewHTTPTransport(300*time.Millisecond, 1)

	var buf bytes.Buffer
	require.NoError(t, transport.Fetch(context.Background(), srv.URL+"/big.deb", &buf))
	assert.Equal(t, "chunk0;chunk1;chunk2;chunk3;chunk4;chunk5;", buf.String())
}

func TestHTTPTransportHeaderTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	transport := NewHTTPTransport(100*time.Millisecond, 1)
	err := transport.Fetch(context.Background(), srv.URL+"/stuck.deb", io.Discard)
	require.Error(t, err)
	assert.True(t, IsRetryable(err), "header timeout should be retryable: %v", err)
}

func TestRouterAndFileTransport(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "local.apk")
	require.NoError(t, os.WriteFile(src, []byte("apk"), 0644))

	router := NewRouter(newFake(nil))

	dst := filepath.Join(dir, "copy.apk")
	s := New(router, Options{}, nil)
	require.NoError(t, s.Run(context.Background(), []Job{{Package: "local", URI: "file://" + src, Path: dst}}))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "apk", string(data))

	err = router.Fetch(context.Background(), "ftp://mirror.test/x", io.Discard)
	assert.Error(t, err)
}
