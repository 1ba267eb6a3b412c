package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *server {
	t.Helper()
	products, err := loadFixture(filepath.Join("testdata", "products.json"))
	if err != nil {
		t.Fatalf("loading fixture: %v", err)
	}
	return &server{log: testLogger(), products: products}
}

type pageResponse struct {
	Data struct {
		Products struct {
			PageInfo struct {
				HasNextPage bool    `json:"hasNextPage"`
				EndCursor   *string `json:"endCursor"`
			} `json:"pageInfo"`
			Nodes []struct {
				ID string `json:"id"`
			} `json:"nodes"`
		} `json:"products"`
	} `json:"data"`
	Errors []struct {
		Message    string            `json:"message"`
		Extensions map[string]string `json:"extensions"`
	} `json:"errors"`
	Extensions struct {
		Cost struct {
			ThrottleStatus struct {
				CurrentlyAvailable float64 `json:"currentlyAvailable"`
				RestoreRate        float64 `json:"restoreRate"`
			} `json:"throttleStatus"`
		} `json:"cost"`
	} `json:"extensions"`
}

func queryProducts(t *testing.T, h http.Handler, first int, after string) (*httptest.ResponseRecorder, pageResponse) {
	t.Helper()

	vars := map[string]any{"first": first}
	if after != "" {
		vars["after"] = after
	}
	body, err := json.Marshal(graphQLRequest{Query: "query { products(first: $first) { nodes { id } } }", Variables: vars})
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/api/2025-01/graphql.json", bytes.NewReader(body))
	req.Header.Set("X-Shopify-Access-Token", mockToken)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp pageResponse
	if w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
	return w, resp
}

func TestLoadFixture(t *testing.T) {
	products, err := loadFixture(filepath.Join("testdata", "products.json"))
	if err != nil {
		t.Fatalf("loading fixture: %v", err)
	}
	if len(products) != 5 {
		t.Errorf("products=%d, want 5", len(products))
	}
}

func TestTokenHandler_Success(t *testing.T) {
	h := newTestServer(t).routes()

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"id"},
		"client_secret": {"secret"},
	}
	req := httptest.NewRequest(http.MethodPost, "/admin/oauth/access_token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["access_token"] != mockToken {
		t.Errorf("access_token=%v, want %s", resp["access_token"], mockToken)
	}
	if resp["expires_in"] != float64(86399) {
		t.Errorf("expires_in=%v, want 86399", resp["expires_in"])
	}
}

func TestTokenHandler_MissingCredentials(t *testing.T) {
	h := newTestServer(t).routes()

	req := httptest.NewRequest(http.MethodPost, "/admin/oauth/access_token",
		strings.NewReader("grant_type=client_credentials"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusUnauthorized)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["error"] != "invalid_client" {
		t.Errorf("error=%s, want invalid_client", resp["error"])
	}
}

func TestGraphQL_RequiresToken(t *testing.T) {
	h := newTestServer(t).routes()

	req := httptest.NewRequest(http.MethodPost, "/admin/api/2025-01/graphql.json", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestGraphQL_Pagination(t *testing.T) {
	h := newTestServer(t).routes()

	var (
		ids    []string
		cursor string
		pages  int
	)
	for {
		w, resp := queryProducts(t, h, 2, cursor)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d, want %d", w.Code, http.StatusOK)
		}
		pages++
		for _, n := range resp.Data.Products.Nodes {
			ids = append(ids, n.ID)
		}
		if resp.Extensions.Cost.ThrottleStatus.RestoreRate != restoreRate {
			t.Errorf("restoreRate=%v, want %v", resp.Extensions.Cost.ThrottleStatus.RestoreRate, restoreRate)
		}
		if !resp.Data.Products.PageInfo.HasNextPage {
			break
		}
		if resp.Data.Products.PageInfo.EndCursor == nil {
			t.Fatal("hasNextPage without endCursor")
		}
		cursor = *resp.Data.Products.PageInfo.EndCursor
	}

	if pages != 3 {
		t.Errorf("pages=%d, want 3", pages)
	}
	if len(ids) != 5 || ids[0] != "gid://shopify/Product/1001" || ids[4] != "gid://shopify/Product/1005" {
		t.Errorf("ids=%v", ids)
	}
}

func TestGraphQL_InvalidCursor(t *testing.T) {
	h := newTestServer(t).routes()

	_, resp := queryProducts(t, h, 2, "not-base64!")
	if len(resp.Errors) != 1 {
		t.Fatalf("errors=%d, want 1", len(resp.Errors))
	}
}

func TestGraphQL_Throttling(t *testing.T) {
	s := newTestServer(t)
	s.throttleEvery = 2
	s.http429Every = 3
	h := s.routes()

	// Request 1 succeeds.
	w, resp := queryProducts(t, h, 10, "")
	if w.Code != http.StatusOK || len(resp.Errors) != 0 {
		t.Fatalf("first request: status=%d errors=%d", w.Code, len(resp.Errors))
	}

	// Request 2 is THROTTLED.
	_, resp = queryProducts(t, h, 10, "")
	if len(resp.Errors) != 1 || resp.Errors[0].Extensions["code"] != "THROTTLED" {
		t.Fatalf("second request errors=%+v, want THROTTLED", resp.Errors)
	}

	// Request 3 is an HTTP 429.
	w, _ = queryProducts(t, h, 10, "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status=%d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After=%q, want 1", w.Header().Get("Retry-After"))
	}
}

func TestCursorRoundTrip(t *testing.T) {
	n, err := decodeCursor(encodeCursor(42))
	if err != nil {
		t.Fatalf("decoding cursor: %v", err)
	}
	if n != 42 {
		t.Errorf("offset=%d, want 42", n)
	}
	if n, err := decodeCursor(""); err != nil || n != 0 {
		t.Errorf("empty cursor = %d, %v", n, err)
	}
}
