package registrations

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newServeRouter(store *memStorage) *gin.Engine {
	r := gin.New()
	r.GET("/files/*filepath", ServeFileHandler(store))
	return r
}

func TestServeFileHandler(t *testing.T) {
	store := newMemStorage()
	png := pngBytes()
	if _, err := store.Upload(context.Background(), "screenshots/reg-1.png", bytes.NewReader(png), int64(len(png))); err != nil {
		t.Fatal("seed upload:", err)
	}
	r := newServeRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/files/screenshots/reg-1.png", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if !bytes.Equal(w.Body.Bytes(), png) {
		t.Error("served bytes differ from stored bytes")
	}
}

func TestServeFileHandler_NotFound(t *testing.T) {
	r := newServeRouter(newMemStorage())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/files/screenshots/missing.png", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestServeFileHandler_EmptyPath(t *testing.T) {
	r := newServeRouter(newMemStorage())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/files/", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
