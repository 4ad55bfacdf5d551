// Package proxy forwards read-only requests to the upstream catalog API.
package proxy

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

// Headers copied from the upstream response.
var passthroughHeaders = []string{"Content-Type", "Cache-Control", "ETag", "Last-Modified"}

// CatalogProxy forwards requests to the catalog API, adding the API key so
// browsers never see it.
type CatalogProxy struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewCatalogProxy creates a new proxy with sensible defaults.
func NewCatalogProxy(baseURL, apiKey string) *CatalogProxy {
	return &CatalogProxy{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Forward creates a GET handler that strips pathPrefix and forwards the
// rest of the path and query upstream.
func (p *CatalogProxy) Forward(pathPrefix string) fiber.Handler {
	return func(c fiber.Ctx) error {
		originalPath := c.Path()
		targetPath := strings.TrimPrefix(originalPath, pathPrefix)
		if targetPath == "" || strings.Contains(targetPath, "..") {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid catalog path",
			})
		}
		if !strings.HasPrefix(targetPath, "/") {
			targetPath = "/" + targetPath
		}

		query, err := url.ParseQuery(string(c.Request().URI().QueryString()))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid query string",
			})
		}
		query.Set("api_key", p.apiKey)
		targetURL := p.baseURL + targetPath + "?" + query.Encode()

		slog.Debug("proxying catalog request", "from", originalPath, "to", p.baseURL+targetPath)

		req, err := http.NewRequestWithContext(c.Context(), http.MethodGet, targetURL, nil)
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "failed to create proxy request",
			})
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Forwarded-For", c.IP())

		resp, err := p.client.Do(req)
		if err != nil {
			slog.Error("proxy request failed", "path", targetPath, "error", err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "catalog service unavailable",
			})
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "failed to read catalog response",
			})
		}

		for _, key := range passthroughHeaders {
			if val := resp.Header.Get(key); val != "" {
				c.Set(key, val)
			}
		}

		return c.Status(resp.StatusCode).Send(body)
	}
}
