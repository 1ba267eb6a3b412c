package cmd

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/shopify-zbozi-feed/internal/config"
	"github.com/donaldgifford/shopify-zbozi-feed/internal/feed"
	"github.com/donaldgifford/shopify-zbozi-feed/internal/shopify"
)

const productsBody = `{"data":{"products":{"nodes":[{
  "id":"gid://shopify/Product/1001","title":"Mug","vendor":"Acme","handle":"mug",
  "descriptionHtml":"<p>Big mug</p>",
  "featuredImage":{"url":"https://cdn.example/mug.jpg"},
  "images":{"nodes":[{"url":"https://cdn.example/mug.jpg"}]},
  "translations":[],
  "variants":{"nodes":[{"id":"gid://shopify/ProductVariant/2001","sku":"MUG-1","barcode":null,
    "inventoryQuantity":4,"selectedOptions":[],
    "contextualPricing":{"price":{"amount":"199.0","currencyCode":"CZK"}}}]}
}],"pageInfo":{"hasNextPage":false,"endCursor":null}}},
"extensions":{"cost":{"requestedQueryCost":12,"actualQueryCost":12,
  "throttleStatus":{"maximumAvailable":2000,"currentlyAvailable":1988,"restoreRate":100}}}}`

// fakeShopify serves the token exchange and one products page.
func fakeShopify(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/admin/oauth/access_token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"shpat_test","expires_in":86399}`)
	})
	mux.HandleFunc("/admin/api/2025-01/graphql.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "shpat_test", r.Header.Get("X-Shopify-Access-Token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, productsBody)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, shopURL string) *config.Config {
	t.Helper()

	env := map[string]string{
		config.EnvShop:         "acme.myshopify.com",
		config.EnvPublicDomain: "shop.example.cz",
		config.EnvClientID:     "id",
		config.EnvClientSecret: "secret",
	}
	cfg, err := config.LoadWithEnv("", func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.NoError(t, err)

	cfg.Shopify.TokenURL = shopURL + "/admin/oauth/access_token"
	cfg.Shopify.GraphQLURL = shopURL + "/admin/api/2025-01/graphql.json"
	cfg.Shopify.Timeout = 5 * time.Second
	return cfg
}

func TestNewServer_Routes(t *testing.T) {
	shop := fakeShopify(t)
	cfg := testConfig(t, shop.URL)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	e := newServer(cfg, newFeedStack(cfg, log), log)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		return rec
	}

	tests := []struct {
		name        string
		path        string
		wantStatus  int
		wantContain string
	}{
		{name: "root", path: "/", wantStatus: http.StatusOK, wantContain: "acme.myshopify.com"},
		{name: "healthz", path: "/healthz", wantStatus: http.StatusOK, wantContain: `"ok"`},
		{name: "readyz", path: "/readyz", wantStatus: http.StatusOK, wantContain: `"ready"`},
		{name: "feed", path: "/feed.xml", wantStatus: http.StatusOK, wantContain: "<ITEM_ID>MUG-1</ITEM_ID>"},
		{name: "feed alias", path: "/feed-cz.xml", wantStatus: http.StatusOK, wantContain: "<PRICE_VAT>199.00</PRICE_VAT>"},
		{name: "feed status", path: "/api/v1/feed/status", wantStatus: http.StatusOK, wantContain: `"cached":true`},
		{name: "throttle", path: "/api/v1/throttle", wantStatus: http.StatusOK, wantContain: `"currently_available":1988`},
		{name: "metrics", path: "/metrics", wantStatus: http.StatusOK, wantContain: "zfeed_feed_items"},
		{name: "openapi", path: "/openapi.json", wantStatus: http.StatusOK, wantContain: "/api/v1/feed/refresh"},
	}

	// Subtests run in order: the feed requests prime the cache and the
	// throttle tracker for the status routes.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(tt.path)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), tt.wantContain)
		})
	}
}

func TestNewServer_FeedFailure(t *testing.T) {
	shop := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"invalid_client"}`)
	}))
	t.Cleanup(shop.Close)

	cfg := testConfig(t, shop.URL)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := newServer(cfg, newFeedStack(cfg, log), log)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed.xml", http.NoBody))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))

	var body struct {
		Error string `json:"error"`
		Hint  string `json:"hint"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)
	assert.NotEmpty(t, body.Hint)
}

func TestFeedSettings(t *testing.T) {
	t.Parallel()

	days, images := 0, 3
	got := feedSettings(&config.FeedConfig{
		PublicDomain:       "shop.example.cz",
		DeliveryDays:       &days,
		PageSize:           50,
		MaxAlternateImages: &images,
		DescriptionLimit:   200,
		MissingPrice:       "empty",
		URLStyle:           "product",
	})

	assert.Equal(t, feed.Settings{
		PublicDomain:       "shop.example.cz",
		DeliveryDays:       0,
		PageSize:           50,
		MaxAlternateImages: 3,
		DescriptionLimit:   200,
		MissingPrice:       feed.MissingPriceEmpty,
		URLStyle:           feed.URLStyleProduct,
	}, got)
}

func TestImageLimit(t *testing.T) {
	t.Parallel()

	twenty, zero := 20, 0
	tests := []struct {
		name string
		max  *int
		want int
	}{
		{name: "unset", want: shopify.DefaultImageLimit},
		{name: "above default", max: &twenty, want: 21},
		{name: "no alternates", max: &zero, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, imageLimit(&config.FeedConfig{MaxAlternateImages: tt.max}))
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Parallel()

	assert.NoError(t, loadEnvFile(""))
	assert.NoError(t, loadEnvFile(t.TempDir()+"/missing.env"))
}
