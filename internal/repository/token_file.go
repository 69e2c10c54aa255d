package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"todo_client/internal/domain"

	"github.com/sirupsen/logrus"
)

// fileTokenStore keeps a small JSON key/value document on disk, the same
// shape a browser's local storage would hold.
type fileTokenStore struct {
	path string
	log  *logrus.Logger
	mu   sync.Mutex
}

func NewFileTokenStore(path string, logger *logrus.Logger) domain.TokenStore {
	return &fileTokenStore{
		path: path,
		log:  logger,
	}
}

func (s *fileTokenStore) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", err
	}
	return values[TokenKey], nil
}

func (s *fileTokenStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		s.log.Warnf("Repository: Token file unreadable, overwriting: %v", err)
		values = map[string]string{}
	}
	values[TokenKey] = token
	return s.write(values)
}

func (s *fileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		s.log.Warnf("Repository: Token file unreadable, removing it: %v", err)
		if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return fmt.Errorf("could not remove token file: %w", rmErr)
		}
		return nil
	}
	if _, ok := values[TokenKey]; !ok {
		return nil
	}
	delete(values, TokenKey)
	return s.write(values)
}

func (s *fileTokenStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read token file: %w", err)
	}
	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("could not decode token file: %w", err)
	}
	return values, nil
}

func (s *fileTokenStore) write(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("could not create token directory: %w", err)
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode token file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".token-*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temp token file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("could not write token file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("could not chmod token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close token file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("could not replace token file: %w", err)
	}
	s.log.Debugf("Repository: Token file %s updated", s.path)
	return nil
}
