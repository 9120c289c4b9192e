package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/utafrali/cardshop/internal/domain"
	"github.com/utafrali/cardshop/pkg/httpclient"
	"github.com/utafrali/cardshop/pkg/httputil"
)

const catalogService = "catalog"

// Getter issues GET requests. *httpclient.CircuitBreakerClient satisfies it.
type Getter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// HTTPLoader fetches product pricing from a remote catalog service that
// answers GET {base}/api/v1/products/{type}/pricing with the standard
// response envelope.
type HTTPLoader struct {
	client  Getter
	baseURL string
	logger  *slog.Logger
}

// NewHTTPLoader creates a loader against the catalog at baseURL.
func NewHTTPLoader(baseURL string, client Getter, logger *slog.Logger) *HTTPLoader {
	return &HTTPLoader{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// NewCircuitBreakerGetter builds the retrying, circuit-broken client the
// HTTP loader uses in production.
func NewCircuitBreakerGetter(cfg httpclient.Config, logger *slog.Logger) *httpclient.CircuitBreakerClient {
	return httpclient.NewCircuitBreakerClient(
		httpclient.New(cfg),
		httpclient.DefaultCircuitBreakerConfig(catalogService),
		logger,
	)
}

// Load fetches and validates the product for productType.
func (l *HTTPLoader) Load(ctx context.Context, productType string) (domain.Product, error) {
	endpoint := fmt.Sprintf("%s/api/v1/products/%s/pricing", l.baseURL, url.PathEscape(productType))

	resp, err := l.client.Get(ctx, endpoint)
	if err != nil {
		return domain.Product{}, fmt.Errorf("fetch product %s: %w", productType, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return domain.Product{}, httpclient.ResponseError(resp, catalogService)
	}

	var product domain.Product
	if err := httputil.DecodeData(resp.Body, &product); err != nil {
		return domain.Product{}, fmt.Errorf("decode product %s: %w", productType, err)
	}
	if err := product.Validate(); err != nil {
		return domain.Product{}, fmt.Errorf("invalid product %s from catalog: %w", productType, err)
	}

	l.logger.DebugContext(ctx, "product fetched from catalog",
		slog.String("product_type", productType),
		slog.Int("max_cards", product.MaxCards),
	)

	return product, nil
}
