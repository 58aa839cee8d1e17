package rev

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

const (
	uploadReadChunk = 32 << 10
	missingBody     = "<?>"
)

// Progress хранит счётчики отправленных и общих байт загрузки.
type Progress struct {
	sent     atomic.Int64
	total    atomic.Int64
	observer func(sent, total int64)
}

// NewProgress создаёт счётчик прогресса. observer, если задан, вызывается через Dispatcher клиента.
func NewProgress(observer func(sent, total int64)) *Progress {
	return &Progress{observer: observer}
}

// Sent возвращает число отправленных байт.
func (p *Progress) Sent() int64 {
	return p.sent.Load()
}

// Total возвращает общий размер загрузки.
func (p *Progress) Total() int64 {
	return p.total.Load()
}

// Fraction возвращает долю отправленных байт от 0 до 1.
func (p *Progress) Fraction() float64 {
	total := p.Total()
	if total <= 0 {
		return 0
	}
	return float64(p.Sent()) / float64(total)
}

func (p *Progress) update(sent, total int64) {
	p.sent.Store(sent)
	p.total.Store(total)
}

// UploadTask позволяет отменить загрузку. Отмена приходит в колбэк как транспортная ошибка.
type UploadTask struct {
	cancel context.CancelFunc
}

// Cancel прерывает передачу.
func (t *UploadTask) Cancel() {
	t.cancel()
}

type uploadState int

const (
	uploadSending uploadState = iota
	uploadFinished
)

// uploadSession накапливает события одной загрузки: заголовки ответа, тело ответа и
// прогресс отправки могут приходить в любом порядке, завершение всегда последнее.
type uploadSession struct {
	mu       sync.Mutex
	state    uploadState
	url      string
	progress *Progress
	status   int
	header   http.Header
	body     bytes.Buffer
	notify   func(sent, total int64)
	finish   func(Result[string])
}

func (s *uploadSession) handleHeaders(status int, header http.Header) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != uploadSending {
		return
	}
	s.status = status
	s.header = header.Clone()
}

func (s *uploadSession) handleData(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != uploadSending {
		return
	}
	s.body.Write(p)
}

func (s *uploadSession) handleSent(sent, total int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != uploadSending {
		return
	}
	s.progress.update(sent, total)
	if s.notify != nil {
		s.notify(sent, total)
	}
}

func (s *uploadSession) handleComplete(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != uploadSending {
		return
	}
	s.state = uploadFinished
	s.finish(s.result(err))
}

func (s *uploadSession) result(err error) Result[string] {
	if err != nil {
		return Failure[string](newTransportError(err))
	}

	if s.status == http.StatusCreated {
		if location := s.header.Get("Location"); location != "" {
			return Success(location)
		}
		return Failure[string](newUnexpectedError("the server indicated success, but did not include the Location header", nil))
	}

	body := s.body.String()
	if body == "" {
		body = missingBody
	}
	return Failure[string](newRequestFailedError(s.url, s.status, body))
}

// UploadInputFile загружает локальный файл потоком в POST /inputs. При пустом contentType
// используется video/mp4. Прогресс отправки пишется в progress, если он задан.
//
// На одном клиенте одновременно допускается только одна загрузка: повторный вызов до
// срабатывания done является ошибкой программиста и вызывает панику. К вызову done
// загрузка уже завершена, поэтому из done можно начать следующую.
func (c *Client) UploadInputFile(ctx context.Context, filePath, contentType string, progress *Progress, done func(Result[string])) *UploadTask {
	if contentType == "" {
		contentType = defaultContentType
	}
	if progress == nil {
		progress = NewProgress(nil)
	}

	ctx, cancel := context.WithCancel(ctx)

	s := &uploadSession{
		url:      c.endpoint("inputs").String(),
		progress: progress,
	}
	if observer := progress.observer; observer != nil {
		s.notify = func(sent, total int64) {
			c.deliver(func() { observer(sent, total) })
		}
	}
	s.finish = func(res Result[string]) {
		cancel()
		c.deliver(func() {
			c.endUpload(s)
			done(res)
		})
	}

	c.beginUpload(s)

	go c.runUpload(ctx, s, filePath, contentType)

	return &UploadTask{cancel: cancel}
}

// Uploading сообщает, есть ли у клиента незавершённая загрузка файла.
func (c *Client) Uploading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.upload != nil
}

func (c *Client) beginUpload(s *uploadSession) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.upload != nil {
		panic("rev: file upload already in progress on this client; use a separate client per concurrent upload")
	}
	c.upload = s
}

func (c *Client) endUpload(s *uploadSession) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.upload == s {
		c.upload = nil
	}
}

func (c *Client) runUpload(ctx context.Context, s *uploadSession, filePath, contentType string) {
	f, err := os.Open(filePath)
	if err != nil {
		s.handleComplete(fmt.Errorf("open upload file: %w", err))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.handleComplete(fmt.Errorf("stat upload file: %w", err))
		return
	}

	var body io.Reader = http.NoBody
	if info.Size() > 0 {
		body = &progressReader{r: f, total: info.Size(), onRead: s.handleSent}
	}

	u := c.endpoint("inputs")
	req, err := c.newRequest(ctx, http.MethodPost, u, body)
	if err != nil {
		s.handleComplete(err)
		return
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Disposition", contentDisposition(filepath.Base(filePath)))

	c.logger.Debug("upload started",
		zap.String("url", u.String()),
		zap.String("file", filePath),
		zap.Int64("size", info.Size()),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("upload failed", zap.String("file", filePath), zap.Error(err))
		s.handleComplete(err)
		return
	}
	defer resp.Body.Close()

	s.handleHeaders(resp.StatusCode, resp.Header)

	buf := make([]byte, uploadReadChunk)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			s.handleData(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			c.logger.Warn("read upload response", zap.String("file", filePath), zap.Error(err))
			s.handleComplete(err)
			return
		}
	}

	c.logger.Debug("upload finished", zap.String("file", filePath), zap.Int("status", resp.StatusCode))
	s.handleComplete(nil)
}

func contentDisposition(filename string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(filename)
	return fmt.Sprintf(`attachment; filename="%s"`, escaped)
}

// progressReader сообщает о каждом прочитанном транспортом фрагменте тела запроса.
type progressReader struct {
	r      io.Reader
	total  int64
	sent   int64
	onRead func(sent, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.onRead(p.sent, p.total)
	}
	return n, err
}
