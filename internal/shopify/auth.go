package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/donaldgifford/shopify-zbozi-feed/internal/metrics"
)

const refreshBuffer = 60 * time.Second

// ClientCredentialsProvider implements TokenProvider using the Shopify
// client credentials grant. It caches the token and refreshes it when
// expired or within 60 seconds of expiry. Only one caller performs the
// exchange at a time; the others wait on the mutex and reuse its result.
type ClientCredentialsProvider struct {
	clientID     string
	clientSecret string
	tokenURL     string
	client       *http.Client

	mu      sync.Mutex
	token   Token
	nowFunc func() time.Time // for testing
}

// AuthOption configures the ClientCredentialsProvider.
type AuthOption func(*ClientCredentialsProvider)

// WithTokenURL overrides the token endpoint derived from the shop domain.
func WithTokenURL(u string) AuthOption {
	return func(p *ClientCredentialsProvider) {
		p.tokenURL = u
	}
}

// WithAuthHTTPClient overrides the default HTTP client.
func WithAuthHTTPClient(c *http.Client) AuthOption {
	return func(p *ClientCredentialsProvider) {
		p.client = c
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) AuthOption {
	return func(p *ClientCredentialsProvider) {
		p.nowFunc = f
	}
}

// TokenURL returns the client credentials endpoint for a shop domain such
// as "acme.myshopify.com".
func TokenURL(shop string) string {
	return "https://" + strings.TrimSuffix(shop, "/") + "/admin/oauth/access_token"
}

// NewClientCredentialsProvider creates a token provider for the given shop.
func NewClientCredentialsProvider(
	shop, clientID, clientSecret string,
	opts ...AuthOption,
) *ClientCredentialsProvider {
	p := &ClientCredentialsProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     TokenURL(shop),
		client:       &http.Client{Timeout: 10 * time.Second},
		nowFunc:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Token returns a valid access token, exchanging credentials if necessary.
func (p *ClientCredentialsProvider) Token(ctx context.Context) (Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token.Value != "" && p.nowFunc().Before(p.token.Expiry.Add(-refreshBuffer)) {
		return p.token, nil
	}

	return p.refreshLocked(ctx)
}

// Invalidate drops the cached token so the next Token call performs a fresh
// exchange.
func (p *ClientCredentialsProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = Token{}
}

func (p *ClientCredentialsProvider) refreshLocked(ctx context.Context) (Token, error) {
	metrics.TokenExchangesTotal.Inc()

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {p.clientID},
		"client_secret": {p.clientSecret},
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.tokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return Token{}, &AuthError{Reason: "creating token request", Err: err}
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Token{}, &AuthError{Reason: "executing token request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Token{}, &AuthError{
			StatusCode: resp.StatusCode,
			Reason:     "reading token response",
			Err:        err,
		}
	}

	if resp.StatusCode != http.StatusOK {
		var errResp tokenErrorResponse
		_ = json.Unmarshal(body, &errResp) //nolint:errcheck // best-effort error parsing
		return Token{}, &AuthError{
			StatusCode: resp.StatusCode,
			Reason:     fmt.Sprintf("%s - %s", errResp.Error, errResp.ErrorDescription),
		}
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return Token{}, &AuthError{
			StatusCode: resp.StatusCode,
			Reason:     "parsing token response",
			Err:        err,
		}
	}

	if tokenResp.AccessToken == "" {
		return Token{}, &AuthError{
			StatusCode: resp.StatusCode,
			Reason:     "response has no access_token",
		}
	}

	p.token = Token{
		Value:  tokenResp.AccessToken,
		Expiry: p.nowFunc().Add(time.Duration(tokenResp.ExpiresIn) * time.Second),
	}

	return p.token, nil
}
