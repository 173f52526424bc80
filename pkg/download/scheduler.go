// pkg/download/scheduler.go
package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/arc-language/nouzen/pkg/store"
)

// Options tunes a Scheduler.
type Options struct {
	// Concurrency caps transfers in flight at once.
	Concurrency int
	// PerHost caps transfers in flight against one host.
	PerHost int
	// Retries is how many times one transfer may be restarted.
	Retries int
	// Dir receives the downloaded archives.
	Dir string
	// Progress is called with the batch size and the number of finished
	// transfers: once before the first transfer and after each success.
	Progress func(total, completed int)
}

// Job is one planned transfer.
type Job struct {
	Ref     store.Ref
	Package string
	URI     string
	Path    string
}

// Scheduler downloads package archives with bounded parallelism.
type Scheduler struct {
	transport Transport
	opts      Options
	logger    *log.Logger
}

// New creates a scheduler. A nil logger discards output.
func New(transport Transport, opts Options, logger *log.Logger) *Scheduler {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.PerHost < 1 {
		opts.PerHost = opts.Concurrency
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Scheduler{transport: transport, opts: opts, logger: logger}
}

// Plan returns a job for every package of set that is not installed or has
// a newer version available. Obsolete packages are skipped.
func (s *Scheduler) Plan(list *store.RepoList, set *store.Set) []Job {
	var jobs []Job
	for _, ref := range set.Refs() {
		pkg := list.Package(ref)
		if pkg == nil || pkg.Obsolete {
			continue
		}
		if pkg.Installed && !pkg.Upgradable {
			continue
		}
		ext := list.Repository(ref).Type.ArchiveExt()
		jobs = append(jobs, Job{
			Ref:     ref,
			Package: pkg.Name,
			URI:     pkg.URI,
			Path:    filepath.Join(s.opts.Dir, pkg.Name+ext),
		})
	}
	return jobs
}

// Schedule plans and runs the downloads for set.
func (s *Scheduler) Schedule(ctx context.Context, list *store.RepoList, set *store.Set) ([]Job, error) {
	jobs := s.Plan(list, set)
	if err := s.Run(ctx, jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

type transfer struct {
	job      Job
	file     *os.File
	host     string
	attempts int
}

type result struct {
	t   *transfer
	err error
}

// Run downloads every job. The first transfer that fails for good cancels
// the rest and is returned as a *BatchError; files that completed before
// that stay on disk.
func (s *Scheduler) Run(ctx context.Context, jobs []Job) error {
	total, completed := len(jobs), 0
	s.progress(total, completed)
	if total == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	transfers := make([]*transfer, len(jobs))
	for i, job := range jobs {
		transfers[i] = &transfer{job: job, host: host(job.URI)}
	}
	closeAll := func() {
		for _, t := range transfers {
			if t.file != nil {
				t.file.Close()
				t.file = nil
			}
		}
	}

	queue := append([]*transfer(nil), transfers...)
	results := make(chan result)
	inflight := 0
	perHost := make(map[string]int)
	var failure *BatchError

	// Outputs are created on first admission, so at most Concurrency of
	// them are open at once.
	admit := func() {
		for i := 0; failure == nil && i < len(queue) && inflight < s.opts.Concurrency; {
			t := queue[i]
			if perHost[t.host] >= s.opts.PerHost {
				i++
				continue
			}
			if t.file == nil {
				f, err := create(t.job.Path)
				if err != nil {
					failure = &BatchError{Package: t.job.Package, URI: t.job.URI, Err: err}
					cancel()
					return
				}
				t.file = f
			}
			queue = append(queue[:i], queue[i+1:]...)
			inflight++
			perHost[t.host]++

			s.logger.Debug("Starting transfer", "package", t.job.Package, "uri", t.job.URI, "attempt", t.attempts+1)
			go func(t *transfer) {
				results <- result{t: t, err: s.transport.Fetch(ctx, t.job.URI, t.file)}
			}(t)
		}
	}

	admit()

	for inflight > 0 {
		res := <-results
		inflight--
		perHost[res.t.host]--

		if failure != nil {
			continue
		}

		t := res.t
		switch {
		case res.err == nil:
			if err := t.file.Close(); err != nil {
				failure = &BatchError{Package: t.job.Package, URI: t.job.URI, Attempts: t.attempts + 1, Err: fmt.Errorf("closing file: %w", err)}
				cancel()
				continue
			}
			t.file = nil
			completed++
			s.logger.Debug("Transfer finished", "package", t.job.Package)
			s.progress(total, completed)

		case ctx.Err() == nil && IsRetryable(res.err) && t.attempts < s.opts.Retries:
			t.attempts++
			s.logger.Warnf("Retrying download of '%s' (%d/%d): %v", t.job.Package, t.attempts, s.opts.Retries, res.err)
			if err := rewind(t.file); err != nil {
				failure = &BatchError{Package: t.job.Package, URI: t.job.URI, Attempts: t.attempts, Err: err}
				cancel()
				continue
			}
			queue = append(queue, t)

		default:
			failure = &BatchError{
				Package:   t.job.Package,
				URI:       t.job.URI,
				Attempts:  t.attempts + 1,
				Retryable: IsRetryable(res.err),
				Err:       res.err,
			}
			s.logger.Error("Download failed", "package", t.job.Package, "err", res.err)
			cancel()
			continue
		}

		admit()
	}

	closeAll()
	if failure != nil {
		return failure
	}
	return nil
}

func (s *Scheduler) progress(total, completed int) {
	if s.opts.Progress != nil {
		s.opts.Progress(total, completed)
	}
}

func create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating download directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	return f, nil
}

func rewind(f *os.File) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding %s: %w", f.Name(), err)
	}
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("truncating %s: %w", f.Name(), err)
	}
	return nil
}
