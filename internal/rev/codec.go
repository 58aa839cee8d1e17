package rev

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

type validator interface {
	Validate() error
}

// decodeJSON возвращает extractor, декодирующий тело ответа в T и проверяющий инварианты T.
// При ошибке сырое тело пишется в лог, но не попадает в текст ошибки.
func decodeJSON[T any](logger *zap.Logger) extractor[T] {
	return func(resp *http.Response, body []byte) (T, error) {
		var v T
		if err := json.Unmarshal(body, &v); err != nil {
			logger.Debug("couldn't decode response", zap.Error(err), zap.ByteString("body", body))
			return v, newParseError(err)
		}
		if check, ok := any(v).(validator); ok {
			if err := check.Validate(); err != nil {
				logger.Debug("response violates model invariants", zap.Error(err), zap.ByteString("body", body))
				return v, newParseError(err)
			}
		}
		return v, nil
	}
}

type apiErrorBody struct {
	Code    *int   `json:"code"`
	Message string `json:"message"`
}

// decodeAPIError разбирает тело ответа 400 вида {"code": int, "message": string}.
func decodeAPIError(body []byte) (int, string, error) {
	var e apiErrorBody
	if err := json.Unmarshal(body, &e); err != nil {
		return 0, "", fmt.Errorf("decode api error: %w", err)
	}
	if e.Code == nil {
		return 0, "", errors.New("decode api error: code is missing")
	}
	return *e.Code, e.Message, nil
}
