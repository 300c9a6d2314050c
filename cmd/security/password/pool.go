package password

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Pool runs Hash and Verify on a bounded number of slots.
//
// A caller whose context ends while waiting for a slot, or while its hash is
// still running, gets ctx.Err() back at once. The running hash finishes in the
// background and then frees its slot.
type Pool struct {
	cfg Config
	sem *semaphore.Weighted
}

// NewPool returns a Pool with the given number of concurrent slots.
// workers <= 0 means runtime.NumCPU().
func NewPool(cfg Config, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{cfg: cfg, sem: semaphore.NewWeighted(int64(workers))}
}

// Validate applies the password policy. It is cheap and runs inline.
func (p *Pool) Validate(password string) error {
	return p.cfg.Validate(password)
}

// Hash hashes password on a pool slot.
func (p *Pool) Hash(ctx context.Context, password string) (string, error) {
	var (
		encoded string
		err     error
	)
	if runErr := p.run(ctx, func() { encoded, err = p.cfg.Hash(password) }); runErr != nil {
		return "", runErr
	}
	return encoded, err
}

// Verify checks password against encodedHash on a pool slot.
// The error is non-nil only when ctx ended first.
func (p *Pool) Verify(ctx context.Context, password, encodedHash string) (bool, error) {
	var ok bool
	if err := p.run(ctx, func() { ok = p.cfg.Verify(password, encodedHash) }); err != nil {
		return false, err
	}
	return ok, nil
}

func (p *Pool) run(ctx context.Context, fn func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer p.sem.Release(1)
		defer close(done)
		fn()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
