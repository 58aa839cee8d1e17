package rev

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownEnvironment возвращается при разборе неизвестного имени окружения.
	ErrUnknownEnvironment = errors.New("unknown environment")
	// ErrMissingCredentials возвращается, если не задан один из ключей доступа.
	ErrMissingCredentials = errors.New("client key and user key are required")
)

// Environment определяет окружение сервиса: песочницу или боевое.
type Environment string

const (
	Sandbox    Environment = "sandbox"
	Production Environment = "production"
)

const (
	sandboxBaseURL    = "https://api-sandbox.rev.com/api/v1"
	productionBaseURL = "https://www.rev.com/api/v1"
)

// ParseEnvironment разбирает имя окружения без учёта регистра. Пустая строка означает песочницу.
func ParseEnvironment(name string) (Environment, error) {
	switch Environment(strings.ToLower(strings.TrimSpace(name))) {
	case "", Sandbox:
		return Sandbox, nil
	case Production:
		return Production, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEnvironment, name)
	}
}

// BaseURL возвращает корневой адрес API окружения.
func (e Environment) BaseURL() string {
	if e == Production {
		return productionBaseURL
	}
	return sandboxBaseURL
}

// Credentials содержит ключи доступа к API и окружение, к которому они относятся.
type Credentials struct {
	ClientKey   string
	UserKey     string
	Environment Environment
}

// Validate проверяет, что оба ключа заданы, а окружение известно.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.ClientKey) == "" || strings.TrimSpace(c.UserKey) == "" {
		return ErrMissingCredentials
	}
	if _, err := ParseEnvironment(string(c.Environment)); err != nil {
		return err
	}
	return nil
}

func (c Credentials) authorization() string {
	return fmt.Sprintf("Rev %s:%s", c.ClientKey, c.UserKey)
}
