package pipeline

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"plagiarism-checker/internal/apperrors"
	"plagiarism-checker/internal/models"
)

// Result carries one finished check back to the submitter.
type Result struct {
	Report models.Report
	Err    error
}

type job struct {
	ctx    context.Context
	data   []byte
	format models.Format
	done   chan Result
}

// Pool bounds the number of documents processed at once. Embedding is the
// dominant cost, so worker count is sized to what the host can sustain;
// submissions beyond the pending-queue capacity fail fast with OVERLOADED
// instead of queuing without bound.
type Pool struct {
	pipeline *Pipeline
	jobs     chan job
	timeout  timeoutFn

	wg      sync.WaitGroup
	closing chan struct{}
	once    sync.Once
}

type timeoutFn func(context.Context) (context.Context, context.CancelFunc)

// NewPool starts workers goroutines serving a queue of maxPending jobs.
func NewPool(p *Pipeline, workers, maxPending int) *Pool {
	pool := &Pool{
		pipeline: p,
		jobs:     make(chan job, maxPending),
		closing:  make(chan struct{}),
	}
	perRequest := p.cfg.Pipeline.PerRequestTimeout.Std()
	pool.timeout = func(ctx context.Context) (context.Context, context.CancelFunc) {
		return context.WithTimeout(ctx, perRequest)
	}

	pool.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go pool.worker(i)
	}
	return pool
}

func (pool *Pool) worker(id int) {
	defer pool.wg.Done()
	for {
		select {
		case <-pool.closing:
			return
		case j := <-pool.jobs:
			ctx, cancel := pool.timeout(j.ctx)
			rep, err := pool.pipeline.Check(ctx, j.data, j.format)
			cancel()
			if err != nil {
				log.Debug().Err(err).Int("worker", id).Msg("Check failed")
			}
			j.done <- Result{Report: rep, Err: err}
		}
	}
}

// Submit enqueues a document and returns a channel that receives exactly
// one Result. When the queue is full the submission is rejected immediately
// with OVERLOADED; retrying after backoff is the caller's decision.
func (pool *Pool) Submit(ctx context.Context, data []byte, format models.Format) (<-chan Result, error) {
	select {
	case <-pool.closing:
		return nil, apperrors.New(apperrors.CodeOverloaded)
	default:
	}

	j := job{ctx: ctx, data: data, format: format, done: make(chan Result, 1)}
	select {
	case pool.jobs <- j:
		return j.done, nil
	default:
		return nil, apperrors.New(apperrors.CodeOverloaded)
	}
}

// Check submits and waits for the result, honoring ctx cancellation while
// waiting.
func (pool *Pool) Check(ctx context.Context, data []byte, format models.Format) (models.Report, error) {
	done, err := pool.Submit(ctx, data, format)
	if err != nil {
		return models.Report{}, err
	}
	select {
	case res := <-done:
		return res.Report, res.Err
	case <-ctx.Done():
		// The worker's result, if any, is discarded.
		return models.Report{}, apperrors.Wrap(ctx.Err(), apperrors.CodeTimeout)
	}
}

// Close stops accepting work and waits for in-flight checks to finish.
// Jobs still queued when Close is called are dropped; their submitters
// unblock through their own context deadlines.
func (pool *Pool) Close() {
	pool.once.Do(func() {
		close(pool.closing)
	})
	pool.wg.Wait()
}
