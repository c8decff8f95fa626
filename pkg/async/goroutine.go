package async

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"
)

// SafeGo executes a function in a goroutine with context cancellation,
// panic recovery, timeout enforcement and error logging.
//
// Example:
//
//	SafeGo(r.Context(), 5*time.Second, "audit dispatch", func(ctx context.Context) error {
//	    return writer.Write(ctx, entry)
//	})
func SafeGo(parentCtx context.Context, timeout time.Duration, taskName string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(parentCtx, timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				log.Printf("[SafeGo] PANIC in %s: %v\nStack trace:\n%s",
					taskName, r, string(debug.Stack()))
			}
		}()

		if err := fn(ctx); err != nil {
			// Log but don't crash; caller decided this work is best-effort.
			log.Printf("[SafeGo] Error in %s: %v", taskName, err)
		}
	}()
}

// WorkerPool manages a pool of workers that process tasks from a channel.
// Provides graceful shutdown and error collection.
type WorkerPool struct {
	workers      int
	taskName     string
	timeout      time.Duration
	workCh       chan func(context.Context) error
	doneCh       chan struct{}
	errCh        chan error
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

// NewWorkerPool creates a new worker pool with the given concurrency and a
// per-task timeout.
func NewWorkerPool(ctx context.Context, workers int, taskName string, timeout time.Duration) *WorkerPool {
	ctx, cancel := context.WithCancel(ctx)

	pool := &WorkerPool{
		workers:  workers,
		taskName: taskName,
		timeout:  timeout,
		workCh:   make(chan func(context.Context) error, workers*2),
		doneCh:   make(chan struct{}),
		errCh:    make(chan error, workers*10),
		ctx:      ctx,
		cancel:   cancel,
	}

	go func() {
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				pool.worker(id)
			}(i)
		}
		wg.Wait()
		close(pool.doneCh)
	}()

	return pool
}

// Submit adds a task to the worker pool. Returns an error if the pool has
// been shut down.
func (p *WorkerPool) Submit(fn func(context.Context) error) error {
	select {
	case <-p.doneCh:
		return fmt.Errorf("worker pool shut down")
	default:
	}

	// Shutdown may close workCh between the check above and the send below.
	defer func() {
		_ = recover()
	}()

	select {
	case p.workCh <- fn:
		return nil
	case <-p.doneCh:
		return fmt.Errorf("worker pool shut down")
	}
}

// Shutdown gracefully shuts down the worker pool, waiting up to timeout for
// workers to drain queued tasks.
func (p *WorkerPool) Shutdown(timeout time.Duration) error {
	var shutdownErr error

	p.shutdownOnce.Do(func() {
		func() {
			defer func() { _ = recover() }()
			close(p.workCh)
		}()

		select {
		case <-p.doneCh:
			p.cancel()
		case <-time.After(timeout):
			p.cancel()
			shutdownErr = fmt.Errorf("worker pool shutdown timed out after %v", timeout)
		}
	})

	return shutdownErr
}

// Errors returns a channel that receives worker errors. Non-blocking, use
// select to check for errors.
func (p *WorkerPool) Errors() <-chan error {
	return p.errCh
}

func (p *WorkerPool) worker(id int) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WorkerPool] PANIC in worker %d (%s): %v\nStack trace:\n%s",
				id, p.taskName, r, string(debug.Stack()))
		}
	}()

	for {
		select {
		case <-p.ctx.Done():
			return

		case fn, ok := <-p.workCh:
			if !ok {
				return
			}

			ctx, cancel := context.WithTimeout(p.ctx, p.timeout)

			func() {
				defer cancel()
				defer func() {
					if r := recover(); r != nil {
						p.reportError(fmt.Errorf("panic: %v", r))
					}
				}()

				if err := fn(ctx); err != nil {
					p.reportError(err)
				}
			}()
		}
	}
}

func (p *WorkerPool) reportError(err error) {
	select {
	case p.errCh <- err:
	default:
		log.Printf("[WorkerPool] Error channel full, dropping error: %v", err)
	}
}
