package kvstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore открывает (или создает) файл базы и применяет миграции
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("ошибка создания директории базы данных: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы данных: %w", err)
	}
	// Одно соединение: запись в sqlite все равно последовательная
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("ошибка чтения миграций: %w", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("ошибка создания драйвера миграций: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("ошибка инициализации миграций: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, partition, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM kv WHERE partition = ? AND key = ?", partition, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("ошибка чтения %s/%s: %w", partition, key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, partition, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (partition, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (partition, key) DO UPDATE
		SET value = excluded.value, updated_at = excluded.updated_at
	`, partition, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ошибка записи %s/%s: %w", partition, key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, partition, key string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM kv WHERE partition = ? AND key = ?", partition, key)
	if err != nil {
		return fmt.Errorf("ошибка удаления %s/%s: %w", partition, key, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
