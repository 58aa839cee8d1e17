package rev

import (
	"errors"
	"fmt"
)

// Kind определяет категорию ошибки клиента.
type Kind string

const (
	KindTransport     Kind = "transport"
	KindRequestFailed Kind = "request_failed"
	KindNotFound      Kind = "not_found"
	KindAPI           Kind = "api"
	KindUnexpected    Kind = "unexpected"
	KindParse         Kind = "parse"
)

var (
	// ErrTransport означает, что HTTP-ответ не был получен.
	ErrTransport = errors.New("transport error")
	// ErrRequestFailed означает ответ с неожиданным статусом.
	ErrRequestFailed = errors.New("request failed")
	// ErrNotFound означает ответ 404.
	ErrNotFound = errors.New("resource not found")
	// ErrAPI означает ответ 400 со структурированным описанием ошибки.
	ErrAPI = errors.New("api error")
	// ErrUnexpected означает нарушение контракта сервером или клиентом.
	ErrUnexpected = errors.New("unexpected behavior")
	// ErrParse означает, что успешный ответ не удалось декодировать.
	ErrParse = errors.New("parse error")
)

var kindSentinels = map[Kind]error{
	KindTransport:     ErrTransport,
	KindRequestFailed: ErrRequestFailed,
	KindNotFound:      ErrNotFound,
	KindAPI:           ErrAPI,
	KindUnexpected:    ErrUnexpected,
	KindParse:         ErrParse,
}

// Error описывает ошибку клиента с контекстом запроса.
// Body хранит сырое тело ответа для диагностики и не попадает в текст ошибки.
type Error struct {
	Kind    Kind
	URL     string
	Status  int
	Body    string
	Code    int
	Message string
	Reason  string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTransport:
		return fmt.Sprintf("transport error: %v", e.Err)
	case KindRequestFailed:
		return fmt.Sprintf("request to %s failed with status %d", e.URL, e.Status)
	case KindNotFound:
		return fmt.Sprintf("resource not found: %s", e.URL)
	case KindAPI:
		return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
	case KindParse:
		return fmt.Sprintf("parse response: %v", e.Err)
	}

	msg := "unexpected behavior"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap возвращает исходную ошибку.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is сопоставляет ошибку с sentinel-ошибкой её категории.
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// KindOf возвращает категорию ошибки клиента или пустую строку для прочих ошибок.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newTransportError(err error) *Error {
	return &Error{Kind: KindTransport, Err: err}
}

func newRequestFailedError(url string, status int, body string) *Error {
	return &Error{Kind: KindRequestFailed, URL: url, Status: status, Body: body}
}

func newNotFoundError(url string) *Error {
	return &Error{Kind: KindNotFound, URL: url, Status: 404}
}

func newAPIError(code int, message string) *Error {
	return &Error{Kind: KindAPI, Status: 400, Code: code, Message: message}
}

func newUnexpectedError(reason string, err error) *Error {
	return &Error{Kind: KindUnexpected, Reason: reason, Err: err}
}

func newParseError(err error) *Error {
	return &Error{Kind: KindParse, Err: err}
}
