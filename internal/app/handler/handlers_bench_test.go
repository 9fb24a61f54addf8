package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atinyakov/linkshelf/internal/app/service"
	"github.com/atinyakov/linkshelf/internal/logger"
	"github.com/atinyakov/linkshelf/internal/middleware"
	"github.com/atinyakov/linkshelf/internal/storage"
)

func benchService(b *testing.B) *service.URLService {
	b.Helper()

	store, _ := storage.CreateMemoryStorage()
	gen, err := service.NewRandomGenerator(service.DefaultIDLength)
	if err != nil {
		b.Fatal(err)
	}

	return service.NewURL(store, gen, logger.New().Log, "http://localhost:8080")
}

func BenchmarkCreate(b *testing.B) {
	postHandler := NewPost(benchService(b), logger.New().Log)
	body := []byte(`{"longUrl":"https://example.com","title":"bench"}`)

	b.ResetTimer()

	// Бенчмаркаем несколько запросов
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/url/createUrl", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req = middleware.InjectUserID(req, "bench-user")
		postHandler.Create(httptest.NewRecorder(), req)
	}
}

func BenchmarkRedirect(b *testing.B) {
	svc := benchService(b)
	shortURL, rec, err := svc.Shorten(b.Context(), "https://example.com", "", "bench-user")
	if err != nil || shortURL == "" {
		b.Fatal(err)
	}

	getHandler := NewGet(svc, logger.New().Log)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		req := withShortID(httptest.NewRequest(http.MethodGet, "/url/"+rec.ShortID, nil), rec.ShortID)
		getHandler.Redirect(httptest.NewRecorder(), req)
	}
}
