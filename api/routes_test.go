package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostRouting(t *testing.T) {
	tests := []struct {
		name   string
		target string
		status int
		page   string
	}{
		{name: "tenant root", target: "http://acme.example.com/", status: http.StatusOK, page: "acme"},
		{name: "tenant host is case-insensitive", target: "http://ACME.example.com/", status: http.StatusOK, page: "acme"},
		{name: "explicit tenant path", target: "http://example.com/s/acme", status: http.StatusOK, page: "acme"},
		{name: "root domain", target: "http://example.com/", status: http.StatusOK},
		{name: "localhost", target: "http://localhost:3000/", status: http.StatusOK},
		{name: "preview deployment", target: "http://feature-x.vercel.app/", status: http.StatusOK},
		{name: "unknown tenant path", target: "http://acme.example.com/gallery", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.status, rec.Code)
			if tt.page != "" {
				assert.Equal(t, []string{tt.page}, f.public.pages)
			} else {
				assert.Empty(t, f.public.pages)
			}
		})
	}
}

func TestIndex(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "http://example.com/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeResponse[indexResponse](t, rec)
	assert.Equal(t, "example.com", body.RootDomain)
	require.Len(t, body.Projects, 1)
	assert.Equal(t, "https://acme.example.com", body.Projects[0].URL)
}

func TestMicrosite_TagAndMissing(t *testing.T) {
	f := newFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "http://acme.example.com/?tag=kitchen", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"kitchen"}, f.public.tags)

	f.public.missing = true
	rec = f.do(httptest.NewRequest(http.MethodGet, "http://ghost.example.com/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBypassPaths(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "http://acme.example.com/_internal/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeResponse[healthResponse](t, rec).Status)
	assert.Empty(t, f.public.pages)

	rec = f.do(httptest.NewRequest(http.MethodGet, "http://admin.example.com/login", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeResponse[sessionResponse](t, rec).Authenticated)
}

func TestReadyz(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	failing := PingFunc(func(context.Context) error { return errBoom })

	h := newHealthHandler(testStartup, map[string]Pinger{"database": ok, "redis": failing})
	rec := httptest.NewRecorder()
	h.readyz().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_internal/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeResponse[healthResponse](t, rec)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, map[string]string{"database": "ok", "redis": "boom"}, body.Checks)

	h = newHealthHandler(testStartup, map[string]Pinger{"database": ok})
	rec = httptest.NewRecorder()
	h.readyz().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_internal/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
