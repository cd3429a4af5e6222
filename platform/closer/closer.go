package closer

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

type Logger interface {
	Info(ctx context.Context, msg string, fields ...zap.Field)
	Error(ctx context.Context, msg string, fields ...zap.Field)
}

type namedCloser struct {
	name string
	fn   func(ctx context.Context) error
}

type closer struct {
	mu      sync.Mutex
	closers []namedCloser
	log     Logger
	done    bool
}

var c = &closer{}

// SetLogger attaches a logger used while closing resources.
func SetLogger(l Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = l
}

// Add registers an anonymous close function.
func Add(fn func(ctx context.Context) error) {
	AddNamed("", fn)
}

// AddNamed registers a close function under a human-readable name.
func AddNamed(name string, fn func(ctx context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closers = append(c.closers, namedCloser{name: name, fn: fn})
}

// CloseAll runs the registered close functions in LIFO order.
// It is safe to call more than once; only the first call does any work.
func CloseAll(ctx context.Context) error {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return nil
	}
	c.done = true
	closers := c.closers
	log := c.log
	c.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		nc := closers[i]

		if err := nc.fn(ctx); err != nil {
			if log != nil {
				log.Error(ctx, "failed to close resource",
					zap.String("name", nc.name),
					zap.Error(err),
				)
			}
			errs = append(errs, err)
			continue
		}

		if log != nil && nc.name != "" {
			log.Info(ctx, "resource closed", zap.String("name", nc.name))
		}
	}

	return errors.Join(errs...)
}
