package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	dtbench "github.com/jamesainslie/go-dtbench"
)

// Pool manages a pool of ONNX sessions for concurrent prediction.
type Pool struct {
	sessions chan *Session
	info     ModelInfo
	size     int
	batch    int
	mu       sync.Mutex
	closed   bool
}

// NewPool creates a pool of size sessions for the model described by info.
func NewPool(info ModelInfo, size, batch int) (*Pool, error) {
	if size <= 0 {
		size = 1
	}
	if batch <= 0 {
		batch = defaultBatchSize
	}

	pool := &Pool{
		sessions: make(chan *Session, size),
		info:     info,
		size:     size,
		batch:    batch,
	}

	for i := 0; i < size; i++ {
		session, err := NewSession(info)
		if err != nil {
			_ = pool.Close() // Best-effort cleanup; original error takes precedence
			return nil, fmt.Errorf("creating session %d: %w", i, err)
		}
		pool.sessions <- session
	}

	return pool, nil
}

// Acquire gets a session from the pool, blocking if none available.
// Respects context cancellation. Returns error if pool is closed.
func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	select {
	case session, ok := <-p.sessions:
		if !ok {
			return nil, ErrPoolClosed
		}
		return session, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a session to the pool.
func (p *Pool) Release(s *Session) {
	if s == nil {
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = s.Close()
		return
	}
	p.mu.Unlock()

	select {
	case p.sessions <- s:
	default:
		_ = s.Close()
	}
}

// Predict splits features into batches and runs them on pooled sessions
// concurrently. Labels come back in row order.
func (p *Pool) Predict(ctx context.Context, features [][]float64) ([]dtbench.Label, error) {
	out := make([]dtbench.Label, len(features))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.size)
	for start := 0; start < len(features); start += p.batch {
		end := min(start+p.batch, len(features))
		g.Go(func() error {
			s, err := p.Acquire(ctx)
			if err != nil {
				return err
			}
			defer p.Release(s)

			labels, err := s.Predict(ctx, features[start:end])
			if err != nil {
				return fmt.Errorf("rows %d-%d: %w", start, end-1, err)
			}
			copy(out[start:end], labels)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes all sessions in the pool.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.sessions)

	var errs []error
	for session := range p.sessions {
		if err := session.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Size returns the pool size.
func (p *Pool) Size() int {
	return p.size
}

// Info returns the metadata of the pooled model.
func (p *Pool) Info() ModelInfo {
	return p.info
}
