package rev

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// extractor получает значение из успешного ответа. Для каждого эндпоинта своё.
type extractor[T any] func(resp *http.Response, body []byte) (T, error)

type call[T any] struct {
	method  string
	url     *url.URL
	body    []byte
	timeout time.Duration
	extract extractor[T]
}

// execute выполняет запрос в отдельной горутине и доставляет результат через Dispatcher клиента.
func execute[T any](ctx context.Context, c *Client, cl call[T], done func(Result[T])) {
	go func() {
		res := roundTrip(ctx, c, cl)
		c.deliver(func() { done(res) })
	}()
}

func roundTrip[T any](ctx context.Context, c *Client, cl call[T]) Result[T] {
	if cl.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cl.timeout)
		defer cancel()
	}

	req, err := c.newJSONRequest(ctx, cl.method, cl.url, cl.body)
	if err != nil {
		return Failure[T](newUnexpectedError("build request", err))
	}

	c.logger.Debug("api request", zap.String("method", req.Method), zap.String("url", req.URL.String()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("api request failed", zap.String("url", req.URL.String()), zap.Error(err))
		return Failure[T](newTransportError(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("read response body", zap.String("url", req.URL.String()), zap.Error(err))
		return Failure[T](newTransportError(err))
	}

	res := classify(req.URL.String(), resp, body, cl.extract)
	if res.Err != nil {
		c.logger.Warn("api request error",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode),
			zap.Error(res.Err),
		)
	} else {
		c.logger.Debug("api response", zap.String("url", req.URL.String()), zap.Int("status", resp.StatusCode))
	}
	return res
}

// classify сводит HTTP-ответ к Result по коду статуса.
func classify[T any](reqURL string, resp *http.Response, body []byte, extract extractor[T]) Result[T] {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		v, err := extract(resp, body)
		if err != nil {
			var e *Error
			if !errors.As(err, &e) {
				err = newParseError(err)
			}
			return Failure[T](err)
		}
		return Success(v)

	case http.StatusBadRequest:
		code, message, err := decodeAPIError(body)
		if err != nil {
			return Failure[T](newUnexpectedError("the server rejected the request with an unreadable error", err))
		}
		return Failure[T](newAPIError(code, message))

	case http.StatusNotFound:
		return Failure[T](newNotFoundError(reqURL))

	default:
		return Failure[T](newRequestFailedError(reqURL, resp.StatusCode, string(body)))
	}
}

func extractLocation(resp *http.Response, _ []byte) (string, error) {
	location := resp.Header.Get("Location")
	if location == "" {
		return "", newUnexpectedError("the server indicated success, but did not include the Location header", nil)
	}
	return location, nil
}
