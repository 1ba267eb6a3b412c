// Package main implements a mock Shopify Admin API for local development.
// It serves the client credentials token endpoint and the GraphQL products
// query from a JSON fixture, with optional throttling to exercise backoff.
package main

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const (
	mockToken     = "shpat_mock"
	bucketSize    = 2000.0
	restoreRate   = 100.0
	pageQueryCost = 12.0
)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// server holds the fixture and the request counter used for throttling.
type server struct {
	log           *slog.Logger
	products      []json.RawMessage
	throttleEvery int64
	http429Every  int64
	requests      atomic.Int64
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "tools/mock-shopify/testdata/products.json", "path to products fixture")
	throttleEvery := flag.Int64("throttle-every", 0, "answer every Nth GraphQL request with a THROTTLED error (0 = never)")
	http429Every := flag.Int64("429-every", 0, "answer every Nth GraphQL request with HTTP 429 (0 = never)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	products, err := loadFixture(*fixtureFile)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixture", "products", len(products))

	s := &server{
		log:           logger,
		products:      products,
		throttleEvery: *throttleEvery,
		http429Every:  *http429Every,
	}

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock Shopify server", "addr", addr,
		"shop", fmt.Sprintf("localhost:%d", *port),
	)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, s.routes()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/oauth/access_token", s.tokenHandler)
	mux.HandleFunc("POST /admin/api/{version}/graphql.json", s.graphQLHandler)
	return mux
}

// loadFixture reads a JSON array of product nodes in the shape the
// products query returns.
func loadFixture(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var products []json.RawMessage
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return products, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}

func (s *server) tokenHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_request",
			"error_description": err.Error(),
		})
		return
	}

	// Credentials must be present but are not checked.
	if r.PostForm.Get("grant_type") != "client_credentials" ||
		r.PostForm.Get("client_id") == "" ||
		r.PostForm.Get("client_secret") == "" {
		s.log.Warn("token request missing client credentials")
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":             "invalid_client",
			"error_description": "client authentication failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": mockToken,
		"expires_in":   86399,
		"scope":        "read_products,read_translations",
	})
	s.log.Info("issued mock token")
}

func (s *server) graphQLHandler(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Shopify-Access-Token") != mockToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"errors": "[API] Invalid API key or access token (unrecognized login or wrong password)",
		})
		return
	}

	n := s.requests.Add(1)

	if s.http429Every > 0 && n%s.http429Every == 0 {
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"errors": "Exceeded 2 calls per second"})
		s.log.Info("sent HTTP 429", "request", n)
		return
	}

	if s.throttleEvery > 0 && n%s.throttleEvery == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"errors": []map[string]any{{
				"message":    "Throttled",
				"extensions": map[string]string{"code": "THROTTLED"},
			}},
			"extensions": costExtension(pageQueryCost, nil, 5),
		})
		s.log.Info("sent THROTTLED", "request", n)
		return
	}

	var req graphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"errors": "invalid JSON body"})
		return
	}
	if !strings.Contains(req.Query, "products(") {
		writeJSON(w, http.StatusOK, map[string]any{
			"errors": []map[string]any{{"message": "mock server only supports the products query"}},
		})
		return
	}

	first := intVar(req.Variables, "first", 50)
	offset, err := decodeCursor(stringVar(req.Variables, "after"))
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"errors": []map[string]any{{"message": "Invalid cursor for current pagination sort."}},
		})
		return
	}

	page, next := s.page(offset, first)

	var endCursor any
	if len(page) > 0 {
		endCursor = encodeCursor(offset + len(page))
	}

	cost := pageQueryCost
	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"products": map[string]any{
				"pageInfo": map[string]any{
					"hasNextPage": next,
					"endCursor":   endCursor,
				},
				"nodes": page,
			},
		},
		"extensions": costExtension(pageQueryCost, &cost, bucketSize-cost),
	})
	s.log.Info("products page", "offset", offset, "first", first, "returned", len(page), "has_next", next)
}

// page returns up to first products starting at offset and whether more
// remain.
func (s *server) page(offset, first int) ([]json.RawMessage, bool) {
	if offset >= len(s.products) {
		return []json.RawMessage{}, false
	}
	end := min(offset+first, len(s.products))
	return s.products[offset:end], end < len(s.products)
}

func costExtension(requested float64, actual *float64, available float64) map[string]any {
	return map[string]any{
		"cost": map[string]any{
			"requestedQueryCost": requested,
			"actualQueryCost":    actual,
			"throttleStatus": map[string]any{
				"maximumAvailable":   bucketSize,
				"currentlyAvailable": available,
				"restoreRate":        restoreRate,
			},
		},
	}
}

func encodeCursor(offset int) string {
	return base64.StdEncoding.EncodeToString([]byte("offset:" + strconv.Itoa(offset)))
}

func decodeCursor(c string) (int, error) {
	if c == "" {
		return 0, nil
	}
	raw, err := base64.StdEncoding.DecodeString(c)
	if err != nil {
		return 0, fmt.Errorf("decoding cursor: %w", err)
	}
	n, ok := strings.CutPrefix(string(raw), "offset:")
	if !ok {
		return 0, fmt.Errorf("unknown cursor %q", raw)
	}
	return strconv.Atoi(n)
}

func intVar(vars map[string]any, key string, def int) int {
	// JSON numbers decode as float64.
	if v, ok := vars[key].(float64); ok && v > 0 {
		return int(v)
	}
	return def
}

func stringVar(vars map[string]any, key string) string {
	v, _ := vars[key].(string)
	return v
}
