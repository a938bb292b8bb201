package admin

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/event-registry/event-registry/internal/storage"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	// The JWT secret must exist before the first token is generated; the auth
	// package caches it behind a sync.Once.
	os.Setenv("EVR_JWT_SECRET", "test-secret-for-admin-handlers-0123456789")
	os.Exit(m.Run())
}

// errDB is the database failure injected into sqlmock expectations.
func errDB() error {
	return errors.New("connection reset by peer")
}

// newMockDB returns a sqlmock-backed database handle that closes with the test.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal("sqlmock.New:", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// registrationColumns matches the SELECT column order of the registration
// repository.
var registrationColumns = []string{
	"id", "name", "sap_id", "email", "year", "course", "section", "transaction_id",
	"payment_screenshot_path", "hashed_sap_id", "hashed_email", "hashed_transaction_id",
	"created_at", "updated_at",
}

// sampleRegistrationRows builds a registration result set with one row per ID.
func sampleRegistrationRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows(registrationColumns)
	now := time.Now()
	for _, id := range ids {
		rows.AddRow(
			id, "Asha Verma", "500098765", "asha@example.com", "2", "B.Tech CSE", "B", "TXN-"+id,
			"screenshots/"+id+".png", "$2a$10$hash1", "$2a$10$hash2", "$2a$10$hash3",
			now, now,
		)
	}
	return rows
}

// memStorage is an in-memory Storage implementation for handler tests.
type memStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{files: make(map[string][]byte)}
}

func (s *memStorage) Upload(ctx context.Context, path string, reader io.Reader, size int64) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.files[path] = data
	s.mu.Unlock()
	return &storage.UploadResult{Path: path, Size: int64(len(data))}, nil
}

func (s *memStorage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	data, ok := s.files[path]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStorage) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	delete(s.files, path)
	s.mu.Unlock()
	return nil
}

func (s *memStorage) GetURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	return "http://test.local/files/" + path, nil
}

func (s *memStorage) Exists(ctx context.Context, path string) (bool, error) {
	s.mu.Lock()
	_, ok := s.files[path]
	s.mu.Unlock()
	return ok, nil
}

func (s *memStorage) GetMetadata(ctx context.Context, path string) (*storage.FileMetadata, error) {
	s.mu.Lock()
	data, ok := s.files[path]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return &storage.FileMetadata{Path: path, Size: int64(len(data)), LastModified: time.Now()}, nil
}

func (s *memStorage) has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[path]
	return ok
}
