package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"bookstore-orders/internal/models"
	"bookstore-orders/internal/redisclient"
	"bookstore-orders/internal/util"

	"go.uber.org/zap"
)

// ErrProductNotFound is returned when the catalog has no product for a code.
var ErrProductNotFound = errors.New("product not found")

// Client resolves product codes against the catalog service. Lookups are
// bounded by the configured timeout; responses are cached in Redis so repeat
// validations of popular products skip the network hop. Cache failures
// degrade to the HTTP path, they never fail the lookup.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *redisclient.Client
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewClient creates a catalog lookup client
func NewClient(baseURL string, timeout time.Duration, cache *redisclient.Client, cacheTTL time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     util.GetLogger(),
	}
}

// GetProductByCode resolves a product code to its canonical catalog entry
func (c *Client) GetProductByCode(ctx context.Context, code string) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogClient.GetProductByCode")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CatalogLookupLatency.Observe(time.Since(start).Seconds())
	}()

	if c.cache != nil {
		if payload, err := c.cache.GetProduct(ctx, code); err == nil {
			var product models.Product
			if err := json.Unmarshal(payload, &product); err == nil {
				util.CatalogCacheHitsTotal.Inc()
				return &product, nil
			}
		}
	}

	product, err := c.fetchProduct(ctx, code)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if payload, err := json.Marshal(product); err == nil {
			if err := c.cache.SetProduct(ctx, code, payload, c.cacheTTL); err != nil {
				c.logger.Warn("Failed to cache product",
					zap.String("code", code),
					zap.Error(err))
			}
		}
	}

	return product, nil
}

func (c *Client) fetchProduct(ctx context.Context, code string) (*models.Product, error) {
	url := fmt.Sprintf("%s/api/products/%s", c.baseURL, code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		util.CatalogLookupFailuresTotal.WithLabelValues("transport").Inc()
		return nil, fmt.Errorf("catalog lookup for %s failed: %w", code, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		util.CatalogLookupFailuresTotal.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("product %s: %w", code, ErrProductNotFound)
	default:
		util.CatalogLookupFailuresTotal.WithLabelValues("status").Inc()
		return nil, fmt.Errorf("catalog lookup for %s returned status %d", code, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}

	var product models.Product
	if err := json.Unmarshal(body, &product); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}

	return &product, nil
}
