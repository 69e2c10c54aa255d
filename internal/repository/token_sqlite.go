package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"todo_client/internal/domain"

	"github.com/sirupsen/logrus"
)

type sqliteTokenStore struct {
	db  *sql.DB
	log *logrus.Logger
}

// NewSQLiteTokenStore stores the token in a local_storage key/value table,
// creating the table on first use.
func NewSQLiteTokenStore(db *sql.DB, logger *logrus.Logger) (domain.TokenStore, error) {
	query := `
        CREATE TABLE IF NOT EXISTS local_storage (
            key   TEXT PRIMARY KEY,
            value TEXT NOT NULL
        )`
	if _, err := db.Exec(query); err != nil {
		logger.Errorf("Repository: Failed to create local_storage table: %v", err)
		return nil, fmt.Errorf("could not prepare local storage: %w", err)
	}
	return &sqliteTokenStore{
		db:  db,
		log: logger,
	}, nil
}

func (r *sqliteTokenStore) Get() (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM local_storage WHERE key = ?`, TokenKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		r.log.Errorf("Repository: Failed to read token: %v", err)
		return "", fmt.Errorf("could not read token: %w", err)
	}
	return value, nil
}

func (r *sqliteTokenStore) Set(token string) error {
	query := `
        INSERT INTO local_storage (key, value) VALUES (?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := r.db.Exec(query, TokenKey, token); err != nil {
		r.log.Errorf("Repository: Failed to store token: %v", err)
		return fmt.Errorf("could not store token: %w", err)
	}
	r.log.Debug("Repository: Token stored")
	return nil
}

func (r *sqliteTokenStore) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM local_storage WHERE key = ?`, TokenKey); err != nil {
		r.log.Errorf("Repository: Failed to clear token: %v", err)
		return fmt.Errorf("could not clear token: %w", err)
	}
	r.log.Debug("Repository: Token cleared")
	return nil
}
