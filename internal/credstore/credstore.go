// Package credstore хранит ключи доступа к API Rev в TOML-файле, по разделу на окружение.
package credstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/mmeshcher/transcribe-tool/internal/rev"
)

const defaultPath = "~/.config/transcribe/credentials.toml"

type keys struct {
	ClientKey string `toml:"client_key"`
	UserKey   string `toml:"user_key"`
}

type document struct {
	Environment string `toml:"environment,omitempty"`
	Sandbox     *keys  `toml:"sandbox,omitempty"`
	Production  *keys  `toml:"production,omitempty"`
}

// Store предоставляет доступ к ключам, сохранённым в файле.
type Store struct {
	path string
	doc  document
}

// DefaultPath возвращает путь к файлу ключей по умолчанию.
func DefaultPath() string {
	return defaultPath
}

// Load читает файл ключей. Отсутствующий файл даёт пустое хранилище.
func Load(path string) (*Store, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	s := &Store{path: resolved}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("open credentials: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	if err := toml.Unmarshal(bytes, &s.doc); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	return s, nil
}

// Path возвращает абсолютный путь файла.
func (s *Store) Path() string {
	return s.path
}

// Environment возвращает сохранённое окружение; по умолчанию песочница.
func (s *Store) Environment() rev.Environment {
	env, err := rev.ParseEnvironment(s.doc.Environment)
	if err != nil {
		return rev.Sandbox
	}
	return env
}

// SetEnvironment запоминает выбранное окружение.
func (s *Store) SetEnvironment(env rev.Environment) {
	s.doc.Environment = string(env)
}

// Lookup возвращает ключи окружения, если оба ключа сохранены.
func (s *Store) Lookup(env rev.Environment) (rev.Credentials, bool) {
	k := *s.section(env)
	if k == nil || strings.TrimSpace(k.ClientKey) == "" || strings.TrimSpace(k.UserKey) == "" {
		return rev.Credentials{}, false
	}
	return rev.Credentials{ClientKey: k.ClientKey, UserKey: k.UserKey, Environment: env}, true
}

// Set сохраняет ключи для окружения из creds.
func (s *Store) Set(creds rev.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	*s.section(creds.Environment) = &keys{ClientKey: creds.ClientKey, UserKey: creds.UserKey}
	return nil
}

// Delete удаляет ключи окружения.
func (s *Store) Delete(env rev.Environment) {
	*s.section(env) = nil
}

// Save записывает файл, создавая каталоги. Файл доступен только владельцу.
func (s *Store) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}

	bytes, err := toml.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	if err := os.WriteFile(s.path, bytes, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}

	return nil
}

func (s *Store) section(env rev.Environment) **keys {
	if env == rev.Production {
		return &s.doc.Production
	}
	return &s.doc.Sandbox
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
