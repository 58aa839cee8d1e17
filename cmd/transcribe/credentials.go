package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/mmeshcher/transcribe-tool/internal/config"
	"github.com/mmeshcher/transcribe-tool/internal/credstore"
	"github.com/mmeshcher/transcribe-tool/internal/rev"
)

var errNoCredentials = errors.New("no credentials: pass -c and -u or run login")

// resolveCredentials выбирает ключи: явно заданные ключи имеют приоритет над сохранёнными.
func resolveCredentials(cfg *config.Config, store *credstore.Store) (rev.Credentials, error) {
	env, err := selectedEnvironment(cfg, store)
	if err != nil {
		return rev.Credentials{}, err
	}

	if cfg.ClientKey != "" || cfg.UserKey != "" {
		creds := rev.Credentials{ClientKey: cfg.ClientKey, UserKey: cfg.UserKey, Environment: env}
		if err := creds.Validate(); err != nil {
			return rev.Credentials{}, err
		}
		return creds, nil
	}

	creds, ok := store.Lookup(env)
	if !ok {
		return rev.Credentials{}, fmt.Errorf("%w (environment %s)", errNoCredentials, env)
	}
	return creds, nil
}

// selectedEnvironment возвращает окружение из флага или сохранённое в файле.
func selectedEnvironment(cfg *config.Config, store *credstore.Store) (rev.Environment, error) {
	if cfg.Environment == "" {
		return store.Environment(), nil
	}
	return rev.ParseEnvironment(cfg.Environment)
}

// login сохраняет ключи окружения и делает его окружением по умолчанию.
func login(cfg *config.Config, store *credstore.Store, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(out)
	clientKey := fs.String("client-key", cfg.ClientKey, "API client key")
	userKey := fs.String("user-key", cfg.UserKey, "API user key")
	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := selectedEnvironment(cfg, store)
	if err != nil {
		return err
	}

	if err := store.Set(rev.Credentials{ClientKey: *clientKey, UserKey: *userKey, Environment: env}); err != nil {
		return err
	}
	store.SetEnvironment(env)

	if err := store.Save(); err != nil {
		return err
	}

	fmt.Fprintf(out, "saved %s credentials to %s\n", env, store.Path())
	return nil
}

// logout удаляет ключи окружения из файла.
func logout(cfg *config.Config, store *credstore.Store, out io.Writer) error {
	env, err := selectedEnvironment(cfg, store)
	if err != nil {
		return err
	}

	store.Delete(env)
	if err := store.Save(); err != nil {
		return err
	}

	fmt.Fprintf(out, "removed %s credentials\n", env)
	return nil
}
