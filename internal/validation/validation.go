// Package validation содержит функции валидации входных данных.
package validation

import (
	"net/url"
	"unicode"
)

// IsValidOrderNumber проверяет, что номер заказа непустой и состоит только из латинских букв и цифр.
func IsValidOrderNumber(number string) bool {
	if number == "" {
		return false
	}

	for _, ch := range number {
		if ch > unicode.MaxASCII {
			return false
		}
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) {
			return false
		}
	}

	return true
}

// IsAbsoluteURL проверяет, что строка является абсолютным URI со схемой и хостом.
func IsAbsoluteURL(raw string) bool {
	if raw == "" {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return u.IsAbs() && u.Host != ""
}
