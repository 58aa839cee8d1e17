package rev

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionRecorder struct {
	mu      sync.Mutex
	results []Result[string]
}

func (r *sessionRecorder) finish(res Result[string]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func newRecordedSession(rec *sessionRecorder) *uploadSession {
	return &uploadSession{
		url:      "https://api-sandbox.rev.com/api/v1/inputs",
		progress: NewProgress(nil),
		finish:   rec.finish,
	}
}

func TestUploadSessionEventOrderDoesNotMatter(t *testing.T) {
	events := map[string]func(s *uploadSession){
		"headers": func(s *uploadSession) {
			s.handleHeaders(http.StatusCreated, http.Header{"Location": []string{"X"}})
		},
		"sent": func(s *uploadSession) { s.handleSent(50, 100) },
		"data": func(s *uploadSession) { s.handleData([]byte("")) },
	}

	orders := [][]string{
		{"headers", "sent", "data"},
		{"headers", "data", "sent"},
		{"sent", "headers", "data"},
		{"sent", "data", "headers"},
		{"data", "headers", "sent"},
		{"data", "sent", "headers"},
	}

	for _, order := range orders {
		rec := &sessionRecorder{}
		s := newRecordedSession(rec)

		for _, name := range order {
			events[name](s)
		}
		s.handleComplete(nil)

		require.Len(t, rec.results, 1, "order %v", order)
		assert.NoError(t, rec.results[0].Err, "order %v", order)
		assert.Equal(t, "X", rec.results[0].Value, "order %v", order)
		assert.Equal(t, int64(50), s.progress.Sent())
		assert.Equal(t, int64(100), s.progress.Total())
		assert.InDelta(t, 0.5, s.progress.Fraction(), 1e-9)
	}
}

func TestUploadSessionTerminalResults(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		header   http.Header
		body     string
		complete error
		want     Kind
		wantBody string
	}{
		{name: "created with location", status: 201, header: http.Header{"Location": []string{"urn:x"}}},
		{name: "created without location", status: 201, header: http.Header{}, want: KindUnexpected},
		{name: "rejected with body", status: 413, header: http.Header{}, body: "too large", want: KindRequestFailed, wantBody: "too large"},
		{name: "rejected without body", status: 500, header: http.Header{}, want: KindRequestFailed, wantBody: "<?>"},
		{name: "transport error", complete: context.Canceled, want: KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &sessionRecorder{}
			s := newRecordedSession(rec)

			if tt.status != 0 {
				s.handleHeaders(tt.status, tt.header)
			}
			if tt.body != "" {
				s.handleData([]byte(tt.body[:3]))
				s.handleData([]byte(tt.body[3:]))
			}
			s.handleComplete(tt.complete)

			require.Len(t, rec.results, 1)
			res := rec.results[0]
			if tt.want == "" {
				require.NoError(t, res.Err)
				assert.Equal(t, "urn:x", res.Value)
				return
			}
			require.Equal(t, tt.want, KindOf(res.Err), "err %v", res.Err)
			if tt.wantBody != "" {
				e := asError(t, res.Err)
				assert.Equal(t, tt.wantBody, e.Body)
				assert.Equal(t, "https://api-sandbox.rev.com/api/v1/inputs", e.URL)
			}
		})
	}
}

func TestUploadSessionIgnoresEventsAfterCompletion(t *testing.T) {
	rec := &sessionRecorder{}
	s := newRecordedSession(rec)

	s.handleHeaders(http.StatusCreated, http.Header{"Location": []string{"urn:x"}})
	s.handleComplete(nil)

	s.handleSent(10, 10)
	s.handleData([]byte("late"))
	s.handleHeaders(http.StatusInternalServerError, http.Header{})
	s.handleComplete(context.Canceled)

	require.Len(t, rec.results, 1)
	assert.Equal(t, "urn:x", rec.results[0].Value)
	assert.Equal(t, int64(0), s.progress.Sent())
}

func writeTempFile(t *testing.T, name string, size int) (string, []byte) {
	t.Helper()

	data := bytes.Repeat([]byte("rev!"), size/4)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path, data
}

func TestUploadInputFile(t *testing.T) {
	path, data := writeTempFile(t, "episode 1.mp4", 256<<10)

	var gotBody []byte
	var gotHeader http.Header

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Location", "urn:rev:inputmedia:uploaded")
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL+"/api/v1")

	var mu sync.Mutex
	var observed []int64
	progress := NewProgress(func(sent, total int64) {
		mu.Lock()
		defer mu.Unlock()
		observed = append(observed, sent)
		assert.Equal(t, int64(len(data)), total)
	})

	res := await(t, func(done func(Result[string])) {
		c.UploadInputFile(context.Background(), path, "", progress, done)
	})

	require.NoError(t, res.Err)
	assert.Equal(t, "urn:rev:inputmedia:uploaded", res.Value)
	assert.Equal(t, data, gotBody)
	assert.Equal(t, `attachment; filename="episode 1.mp4"`, gotHeader.Get("Content-Disposition"))
	assert.Equal(t, "video/mp4", gotHeader.Get("Content-Type"))
	assert.Equal(t, "Rev client-key:user-key", gotHeader.Get("Authorization"))
	assert.Equal(t, int64(len(data)), progress.Sent())
	assert.Equal(t, int64(len(data)), progress.Total())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, observed)
	assert.Equal(t, int64(len(data)), observed[len(observed)-1])
	assert.False(t, c.Uploading())
}

func TestUploadInputFileCustomContentTypeAndFailure(t *testing.T) {
	path, _ := writeTempFile(t, "clip.mov", 16)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "video/quicktime" {
			t.Errorf("content type = %q", got)
		}
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusUnsupportedMediaType)
		_, _ = io.WriteString(w, `unsupported media`)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)

	res := await(t, func(done func(Result[string])) {
		c.UploadInputFile(context.Background(), path, "video/quicktime", nil, done)
	})

	require.ErrorIs(t, res.Err, ErrRequestFailed)
	e := asError(t, res.Err)
	assert.Equal(t, "unsupported media", e.Body)
	assert.Equal(t, ts.URL+"/inputs", e.URL)
}

func TestUploadInputFileMissingFile(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")

	res := await(t, func(done func(Result[string])) {
		c.UploadInputFile(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), "", nil, done)
	})

	assert.ErrorIs(t, res.Err, ErrTransport)
	assert.ErrorIs(t, res.Err, os.ErrNotExist)
}

func TestSecondConcurrentUploadPanics(t *testing.T) {
	path, _ := writeTempFile(t, "a.mp4", 64)

	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-release
		w.Header().Set("Location", "urn:rev:inputmedia:a")
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)

	first := make(chan Result[string], 1)
	c.UploadInputFile(context.Background(), path, "", nil, func(r Result[string]) { first <- r })
	require.True(t, c.Uploading())

	assert.Panics(t, func() {
		c.UploadInputFile(context.Background(), path, "", nil, func(Result[string]) {})
	})

	close(release)

	select {
	case r := <-first:
		require.NoError(t, r.Err)
		assert.Equal(t, "urn:rev:inputmedia:a", r.Value)
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for first upload")
	}

	assert.False(t, c.Uploading())

	res := await(t, func(done func(Result[string])) {
		c.UploadInputFile(context.Background(), path, "", nil, done)
	})
	require.NoError(t, res.Err)
}

func TestUploadInputFileCancel(t *testing.T) {
	path, _ := writeTempFile(t, "a.mp4", 64)

	entered := make(chan struct{})
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		close(entered)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer ts.Close()
	defer close(release)

	c := newTestClient(t, ts.URL)

	res := await(t, func(done func(Result[string])) {
		task := c.UploadInputFile(context.Background(), path, "", nil, done)
		<-entered
		task.Cancel()
	})

	require.ErrorIs(t, res.Err, ErrTransport)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestUploadInputFileChainedFromDone(t *testing.T) {
	first, _ := writeTempFile(t, "a.mp4", 64)
	second, _ := writeTempFile(t, "b.mp4", 64)

	var mu sync.Mutex
	var names []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		mu.Lock()
		names = append(names, r.Header.Get("Content-Disposition"))
		n := len(names)
		mu.Unlock()
		w.Header().Set("Location", "urn:rev:inputmedia:"+strconv.Itoa(n))
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	queue := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = queue.Run(ctx) }()

	c := newTestClient(t, ts.URL, WithDispatcher(queue))

	results := make(chan Result[string], 2)
	c.UploadInputFile(context.Background(), first, "", nil, func(r Result[string]) {
		results <- r
		assert.False(t, c.Uploading())
		c.UploadInputFile(context.Background(), second, "", nil, func(r Result[string]) {
			results <- r
		})
	})

	for _, want := range []string{"urn:rev:inputmedia:1", "urn:rev:inputmedia:2"} {
		select {
		case r := <-results:
			require.NoError(t, r.Err)
			assert.Equal(t, want, r.Value)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{`attachment; filename="a.mp4"`, `attachment; filename="b.mp4"`}, names)
}
