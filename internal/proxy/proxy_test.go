package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForward(t *testing.T) {
	received := make(chan *http.Request, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- r.Clone(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Set-Cookie", "upstream=1")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	app := fiber.New()
	app.Get("/api/v1/tmdb/*", NewCatalogProxy(upstream.URL+"/", "secret").Forward("/api/v1/tmdb"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tmdb/search/movie?query=heat&api_key=spoofed", nil)
	req.Header.Set("Authorization", "Bearer tab-1")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Empty(t, resp.Header.Get("Set-Cookie"))
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"ok":true}`, string(body))

	r := <-received
	assert.Equal(t, "/search/movie", r.URL.Path)
	assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
	assert.Equal(t, "heat", r.URL.Query().Get("query"))
	assert.Empty(t, r.Header.Get("Authorization"))
}

func TestForward_UpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	app := fiber.New()
	app.Get("/tmdb/*", NewCatalogProxy(url, "k").Forward("/tmdb"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/tmdb/movie/550", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}
