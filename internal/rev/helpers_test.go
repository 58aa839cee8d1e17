package rev

import (
	"testing"
	"time"
)

var inline = DispatcherFunc(func(fn func()) { fn() })

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()

	creds := Credentials{ClientKey: "client-key", UserKey: "user-key", Environment: Sandbox}
	opts = append([]Option{WithBaseURL(baseURL), WithDispatcher(inline)}, opts...)

	c, err := NewClient(creds, opts...)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return c
}

func await[T any](t *testing.T, start func(done func(Result[T]))) Result[T] {
	t.Helper()

	ch := make(chan Result[T], 1)
	start(func(r Result[T]) { ch <- r })

	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for result")
	}
	return Result[T]{}
}

func asError(t *testing.T, err error) *Error {
	t.Helper()

	e, ok := err.(*Error)
	if !ok {
		t.Fatalf("error = %T (%v), want *rev.Error", err, err)
	}
	return e
}
