package directory

import (
	"context"
	"iter"
	"sync/atomic"
)

const defaultPageSize = 100

// lifecycle ties every query to an abort signal and a closed flag.
type lifecycle struct {
	abortCtx context.Context
	abort    context.CancelFunc
	closed   atomic.Bool
}

func newLifecycle() *lifecycle {
	ctx, cancel := context.WithCancel(context.Background())
	return &lifecycle{abortCtx: ctx, abort: cancel}
}

// bind derives a query context that is cancelled by StopWaiting.
func (l *lifecycle) bind(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if l.closed.Load() {
		return nil, nil, ErrClosed
	}
	if l.abortCtx.Err() != nil {
		return nil, nil, ErrStopped
	}

	qctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(l.abortCtx, cancel)
	return qctx, func() {
		stop()
		cancel()
	}, nil
}

// translate reports ErrStopped instead of the cancellation it caused.
func (l *lifecycle) translate(err error) error {
	if err != nil && l.abortCtx.Err() != nil {
		return ErrStopped
	}
	return err
}

func (l *lifecycle) stopWaiting() {
	l.abort()
}

func (l *lifecycle) close() {
	l.closed.Store(true)
}

// pageFunc loads up to limit rows with an id strictly greater than afterID, ordered by id.
type pageFunc[T any] func(ctx context.Context, afterID string, limit int) ([]T, error)

// paginate turns keyset pages into a lazy sequence. Each page is fetched only
// when the consumer has drained the previous one.
func paginate[T any](ctx context.Context, l *lifecycle, pageSize int, load pageFunc[T], idOf func(T) string) iter.Seq2[T, error] {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return func(yield func(T, error) bool) {
		var zero T
		after := ""
		for {
			qctx, done, err := l.bind(ctx)
			if err != nil {
				yield(zero, err)
				return
			}
			rows, err := load(qctx, after, pageSize)
			done()
			if err != nil {
				yield(zero, l.translate(err))
				return
			}

			for _, row := range rows {
				if !yield(row, nil) {
					return
				}
			}
			if len(rows) < pageSize {
				return
			}
			after = idOf(rows[len(rows)-1])
		}
	}
}
