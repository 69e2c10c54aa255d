// Package app wires the token store, HTTP client, resource services and
// controllers into one session-aware client.
package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"todo_client/config"
	"todo_client/internal/clients"
	"todo_client/internal/domain"
	"todo_client/internal/repository"
	"todo_client/internal/usecase"
	"todo_client/pkg/db"

	"github.com/sirupsen/logrus"
)

type App struct {
	Config     *config.Config
	Log        *logrus.Logger
	API        *clients.APIClient
	Auth       clients.AuthClient
	Todos      clients.TodoClient
	Session    domain.SessionUseCase
	Collection domain.TodoUseCase

	closers []func() error
}

func New(cfg *config.Config, logger *logrus.Logger) (*App, error) {
	tokens, closeStore, err := NewTokenStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	api := clients.NewAPIClient(cfg.APIURL, cfg.RequestTimeout, tokens, logger)
	logger.Debugf("App: API client initialized for target: %s", cfg.APIURL)

	authClient := clients.NewAuthHTTPClient(api, logger)
	todoClient := clients.NewTodoHTTPClient(api, logger)

	session := usecase.NewSessionUseCase(authClient, tokens, logger)
	collection := usecase.NewTodoUseCase(todoClient, logger)

	// A 401 anywhere ends the session, and the collection follows the session.
	api.OnUnauthorized(session.HandleUnauthorized)
	session.Subscribe(collection.OnSessionChange)

	a := &App{
		Config:     cfg,
		Log:        logger,
		API:        api,
		Auth:       authClient,
		Todos:      todoClient,
		Session:    session,
		Collection: collection,
	}
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}
	return a, nil
}

// NewTokenStore builds the configured store. The returned close function is
// nil when the store holds no resources.
func NewTokenStore(cfg *config.Config, logger *logrus.Logger) (domain.TokenStore, func() error, error) {
	var (
		store   domain.TokenStore
		closeFn func() error
	)

	switch cfg.TokenStore {
	case config.StoreMemory:
		store = repository.NewMemoryTokenStore()
	case config.StoreFile:
		store = repository.NewFileTokenStore(cfg.TokenPath, logger)
	case config.StoreSQLite:
		database, err := db.Connect(cfg.TokenPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open token database: %w", err)
		}
		sqliteStore, err := repository.NewSQLiteTokenStore(database, logger)
		if err != nil {
			_ = database.Close()
			return nil, nil, err
		}
		store, closeFn = sqliteStore, database.Close
	default:
		return nil, nil, fmt.Errorf("unknown token store %q", cfg.TokenStore)
	}
	logger.Debugf("App: Using %s token store", cfg.TokenStore)

	if cfg.TokenPassphrase != "" {
		store = repository.NewSealedTokenStore(store, cfg.TokenPassphrase)
		logger.Debug("App: Token store is sealed with a passphrase")
	}
	return store, closeFn, nil
}

func (a *App) Close() error {
	var errs []error
	for _, fn := range a.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewLogger builds the process logger. Unknown levels fall back to warn.
func NewLogger(level, format string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.WarnLevel
		logger.Warnf("Invalid LOG_LEVEL '%s', using default: %s", level, logLevel.String())
	}
	logger.SetLevel(logLevel)
	return logger
}
