// Package rev предоставляет клиент REST API сервиса транскрипции и субтитров Rev.
//
// Все публичные операции асинхронны: они не блокируют вызывающую сторону и
// доставляют ровно один Result через Dispatcher клиента.
package rev

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/transcribe-tool/internal/model"
	"github.com/mmeshcher/transcribe-tool/internal/validation"
)

const (
	readTimeout        = 30 * time.Second
	defaultContentType = "video/mp4"
)

// Client инкапсулирует HTTP-взаимодействие с API Rev.
// Обычные запросы могут выполняться параллельно; загрузка файла допускается только одна за раз.
type Client struct {
	creds      Credentials
	baseURL    *url.URL
	httpClient *http.Client
	dispatcher Dispatcher
	logger     *zap.Logger

	rawBaseURL string

	mu     sync.Mutex
	upload *uploadSession
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient задаёт HTTP-клиент, например с кэширующим транспортом.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL переопределяет адрес API окружения.
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		c.rawBaseURL = raw
	}
}

// WithDispatcher задаёт контекст доставки результатов.
func WithDispatcher(d Dispatcher) Option {
	return func(c *Client) {
		c.dispatcher = d
	}
}

// WithLogger задаёт логгер клиента.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient создаёт клиент для указанных ключей доступа и окружения.
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		creds:      creds,
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
		rawBaseURL: creds.Environment.BaseURL(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dispatcher == nil {
		c.dispatcher = defaultDispatcher()
	}

	base, err := url.Parse(c.rawBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", c.rawBaseURL, err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("base url %q is not absolute", c.rawBaseURL)
	}
	base.Path = strings.TrimRight(base.Path, "/")
	if base.Path == "" {
		base.Path = "/"
	}
	c.baseURL = base

	return c, nil
}

// MustNewClient создаёт клиент и паникует при некорректных ключах.
// Предназначен для вызывающих сторон, которые уже проверили наличие ключей.
func MustNewClient(creds Credentials, opts ...Option) *Client {
	c, err := NewClient(creds, opts...)
	if err != nil {
		panic(fmt.Sprintf("rev: %v", err))
	}
	return c
}

// Environment возвращает окружение клиента.
func (c *Client) Environment() Environment {
	return c.creds.Environment
}

type inputRequest struct {
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
}

// UploadInputURL регистрирует входной файл по внешнему URL. При пустом filename используется
// последний сегмент пути URL. Результат содержит URI входного файла из заголовка Location.
func (c *Client) UploadInputURL(ctx context.Context, remoteURL, filename, contentType string, done func(Result[string])) {
	if !validation.IsAbsoluteURL(remoteURL) {
		c.deliver(func() { done(Failure[string](newUnexpectedError("remote url must be absolute", nil))) })
		return
	}

	if filename == "" {
		filename = remoteFilename(remoteURL)
	}

	body, err := json.Marshal(inputRequest{
		Filename:    filename,
		URL:         remoteURL,
		ContentType: contentType,
	})
	if err != nil {
		c.deliver(func() { done(Failure[string](newUnexpectedError("encode input request", err))) })
		return
	}

	execute(ctx, c, call[string]{
		method:  http.MethodPost,
		url:     c.endpoint("inputs"),
		body:    body,
		extract: extractLocation,
	}, done)
}

// SubmitOrder создаёт заказ. Результат содержит URI заказа из заголовка Location.
// Параметры без входных файлов отклоняются без обращения к сети.
func (c *Client) SubmitOrder(ctx context.Context, params model.OrderParams, done func(Result[string])) {
	if params == nil {
		c.deliver(func() { done(Failure[string](newUnexpectedError("order params are required", nil))) })
		return
	}
	if err := params.Validate(); err != nil {
		c.deliver(func() { done(Failure[string](newUnexpectedError("invalid order params", err))) })
		return
	}

	body, err := json.Marshal(params)
	if err != nil {
		c.deliver(func() { done(Failure[string](newUnexpectedError("encode order params", err))) })
		return
	}

	execute(ctx, c, call[string]{
		method:  http.MethodPost,
		url:     c.endpoint("orders"),
		body:    body,
		extract: extractLocation,
	}, done)
}

// ListOrders запрашивает первую страницу заказов.
func (c *Client) ListOrders(ctx context.Context, done func(Result[model.PagedOrders])) {
	execute(ctx, c, call[model.PagedOrders]{
		method:  http.MethodGet,
		url:     c.endpoint("orders"),
		timeout: readTimeout,
		extract: decodeJSON[model.PagedOrders](c.logger),
	}, done)
}

// GetOrder запрашивает заказ с вложениями и комментариями.
func (c *Client) GetOrder(ctx context.Context, orderNumber string, done func(Result[model.OrderDetail])) {
	if !validation.IsValidOrderNumber(orderNumber) {
		c.deliver(func() {
			done(Failure[model.OrderDetail](newUnexpectedError(fmt.Sprintf("invalid order number %q", orderNumber), nil)))
		})
		return
	}

	execute(ctx, c, call[model.OrderDetail]{
		method:  http.MethodGet,
		url:     c.endpoint("orders", orderNumber),
		timeout: readTimeout,
		extract: decodeJSON[model.OrderDetail](c.logger),
	}, done)
}

func remoteFilename(remoteURL string) string {
	u, err := url.Parse(remoteURL)
	if err != nil {
		return remoteURL
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return u.Host
	}
	return name
}

func (c *Client) endpoint(elem ...string) *url.URL {
	return c.baseURL.JoinPath(elem...)
}

func (c *Client) newRequest(ctx context.Context, method string, u *url.URL, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.creds.authorization())
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method string, u *url.URL, body []byte) (*http.Request, error) {
	if body == nil {
		return c.newRequest(ctx, method, u, nil)
	}
	req, err := c.newRequest(ctx, method, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) deliver(fn func()) {
	c.dispatcher.Dispatch(fn)
}
