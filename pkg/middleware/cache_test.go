package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheControl_GetIsCacheable(t *testing.T) {
	handler := CacheControl(300)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	assert.Equal(t, "public, max-age=300", rr.Header().Get("Cache-Control"))
}

func TestCacheControl_PostUntouched(t *testing.T) {
	handler := CacheControl(300)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/products", nil))

	assert.Empty(t, rr.Header().Get("Cache-Control"))
}

func TestNoStore(t *testing.T) {
	handler := NoStore(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}
