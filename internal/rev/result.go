package rev

import (
	"context"
	"sync"
)

// Result содержит итог асинхронной операции: значение либо ошибку.
type Result[T any] struct {
	Value T
	Err   error
}

// Success создаёт успешный результат.
func Success[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Failure создаёт результат с ошибкой.
func Failure[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Get возвращает значение и ошибку результата.
func (r Result[T]) Get() (T, error) {
	return r.Value, r.Err
}

// Dispatcher доставляет колбэки в контекст исполнения вызывающей стороны.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc позволяет использовать функцию как Dispatcher.
type DispatcherFunc func(fn func())

// Dispatch вызывает f(fn).
func (f DispatcherFunc) Dispatch(fn func()) {
	f(fn)
}

// Queue выполняет переданные функции по одной, в порядке поступления, в горутине, вызвавшей Run.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
}

// NewQueue создаёт пустую очередь колбэков.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Dispatch ставит функцию в очередь и не блокируется.
func (q *Queue) Dispatch(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Run выполняет функции из очереди до отмены контекста.
func (q *Queue) Run(ctx context.Context) error {
	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()

		for _, fn := range batch {
			fn()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.wake:
		}
	}
}

var (
	defaultQueue     *Queue
	defaultQueueOnce sync.Once
)

// defaultDispatcher возвращает общую для процесса очередь, обслуживаемую одной фоновой горутиной.
func defaultDispatcher() Dispatcher {
	defaultQueueOnce.Do(func() {
		defaultQueue = NewQueue()
		go func() {
			_ = defaultQueue.Run(context.Background())
		}()
	})
	return defaultQueue
}
