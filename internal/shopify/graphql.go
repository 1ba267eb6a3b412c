package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/donaldgifford/shopify-zbozi-feed/internal/metrics"
)

// DefaultAPIVersion is the Admin API version used when none is configured.
const DefaultAPIVersion = "2025-01"

var tracer = otel.Tracer("github.com/donaldgifford/shopify-zbozi-feed/internal/shopify")

// GraphQLURL returns the Admin GraphQL endpoint for a shop and API version.
func GraphQLURL(shop, version string) string {
	if version == "" {
		version = DefaultAPIVersion
	}
	return "https://" + strings.TrimSuffix(shop, "/") + "/admin/api/" + version + "/graphql.json"
}

// Client implements ProductLister against the Admin GraphQL API.
type Client struct {
	tokens      TokenProvider
	endpoint    string
	client      *http.Client
	pacer       *Pacer
	sleep       SleepFunc
	nowFunc     func() time.Time
	maxAttempts int
	tracker     *ThrottleTracker
	log         *slog.Logger

	country    string
	locale     string
	imageLimit int
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithGraphQLURL overrides the GraphQL endpoint.
func WithGraphQLURL(u string) ClientOption {
	return func(c *Client) {
		c.endpoint = u
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// WithPacer injects a client-side pacer. When set, every attempt goes
// through Wait() first.
func WithPacer(p *Pacer) ClientOption {
	return func(c *Client) {
		c.pacer = p
	}
}

// WithSleepFunc replaces the wait used between attempts. Tests use it to
// record delays without sleeping.
func WithSleepFunc(f SleepFunc) ClientOption {
	return func(c *Client) {
		c.sleep = f
	}
}

// WithMaxAttempts overrides the attempt ceiling.
func WithMaxAttempts(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithThrottleTracker records observed throttle state into t.
func WithThrottleTracker(t *ThrottleTracker) ClientOption {
	return func(c *Client) {
		c.tracker = t
	}
}

// WithClientNowFunc overrides the clock used to stamp throttle observations.
func WithClientNowFunc(f func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowFunc = f
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// WithMarket sets the country used for contextual pricing and the locale
// used for translations.
func WithMarket(country, locale string) ClientOption {
	return func(c *Client) {
		c.country = country
		c.locale = locale
	}
}

// WithImageLimit sets how many images are requested per product. Values
// below one are ignored.
func WithImageLimit(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.imageLimit = n
		}
	}
}

// NewClient creates a new Admin GraphQL client.
func NewClient(tokens TokenProvider, endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		tokens:      tokens,
		endpoint:    endpoint,
		client:      &http.Client{Timeout: 30 * time.Second},
		sleep:       sleepContext,
		nowFunc:     time.Now,
		maxAttempts: DefaultMaxAttempts,
		tracker:     &ThrottleTracker{},
		log:         slog.Default(),
		country:     "CZ",
		locale:      "cs",
		imageLimit:  DefaultImageLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tracker returns the throttle tracker the client reports into.
func (c *Client) Tracker() *ThrottleTracker {
	return c.tracker
}

// GraphQLError is one entry of a GraphQL errors array.
type GraphQLError struct {
	Message    string           `json:"message"`
	Path       []any            `json:"path,omitempty"`
	Extensions *ErrorExtensions `json:"extensions,omitempty"`
}

// ErrorExtensions carries the machine-readable error code.
type ErrorExtensions struct {
	Code string `json:"code"`
}

func (e GraphQLError) String() string {
	if e.Extensions != nil && e.Extensions.Code != "" {
		return e.Extensions.Code + ": " + e.Message
	}
	return e.Message
}

func (e GraphQLError) throttle() bool {
	if e.Extensions != nil && strings.EqualFold(e.Extensions.Code, throttledCode) {
		return true
	}
	return strings.Contains(strings.ToLower(e.Message), throttledFragment)
}

// errorList accepts both the GraphQL errors array and the plain string
// the REST layer returns for some non-2xx responses.
type errorList []GraphQLError

func (l *errorList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	switch b[0] {
	case '[':
		var errs []GraphQLError
		if err := json.Unmarshal(b, &errs); err != nil {
			return err
		}
		*l = errs
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = errorList{{Message: s}}
	default:
		*l = errorList{{Message: string(b)}}
	}
	return nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data       json.RawMessage `json:"data"`
	Errors     errorList       `json:"errors"`
	Extensions *struct {
		Cost *QueryCost `json:"cost"`
	} `json:"extensions"`
}

func (r *graphQLResponse) cost() *QueryCost {
	if r.Extensions == nil {
		return nil
	}
	return r.Extensions.Cost
}

// attemptState is a state of the per-query retry machine.
type attemptState int

const (
	stateRequesting attemptState = iota
	stateThrottledHTTP
	stateThrottledAPI
	stateLowBudgetPause
	stateSucceeded
	stateFailed
)

func (s attemptState) String() string {
	switch s {
	case stateRequesting:
		return "requesting"
	case stateThrottledHTTP:
		return "throttled_http"
	case stateThrottledAPI:
		return "throttled_api"
	case stateLowBudgetPause:
		return "low_budget_pause"
	case stateSucceeded:
		return "succeeded"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// transition is the outcome of classifying one response.
type transition struct {
	next attemptState
	wait time.Duration
	data json.RawMessage
	cost *QueryCost
	err  error
}

// classify maps a raw response to the next state. The rules are applied in
// priority order: HTTP 429, throttle error, other GraphQL errors, non-2xx,
// unparsable body, low remaining budget, success.
func classify(status int, header http.Header, body []byte, attempt int) transition {
	if status == http.StatusTooManyRequests {
		return transition{
			next: stateThrottledHTTP,
			wait: retryAfterDelay(header),
			err:  errThrottled{reason: "http 429"},
		}
	}

	ok2xx := status >= 200 && status < 300

	var resp graphQLResponse
	parseErr := json.Unmarshal(body, &resp)
	if parseErr == nil {
		cost := resp.cost()
		for i := range resp.Errors {
			if resp.Errors[i].throttle() {
				return transition{
					next: stateThrottledAPI,
					wait: throttleDelay(cost, attempt),
					cost: cost,
					err:  errThrottled{reason: resp.Errors[i].String()},
				}
			}
		}
		if len(resp.Errors) > 0 {
			qe := &QueryError{Errors: resp.Errors}
			if !ok2xx {
				qe.StatusCode = status
			}
			return transition{next: stateFailed, cost: cost, err: qe}
		}
	}

	if !ok2xx {
		return transition{
			next: stateFailed,
			err:  &QueryError{StatusCode: status, Body: string(body)},
		}
	}

	if parseErr != nil {
		return transition{
			next: stateFailed,
			err:  &ProtocolError{Reason: "decoding response body", Err: parseErr},
		}
	}

	if len(resp.Data) == 0 || bytes.Equal(resp.Data, []byte("null")) {
		return transition{
			next: stateFailed,
			err:  &ProtocolError{Reason: "response has no data"},
		}
	}

	cost := resp.cost()
	if lowBudget(cost) {
		return transition{next: stateLowBudgetPause, wait: lowBudgetPause, data: resp.Data, cost: cost}
	}

	return transition{next: stateSucceeded, data: resp.Data, cost: cost}
}

// Query executes document with variables and decodes the data object into
// out. Throttled attempts are retried up to the attempt ceiling.
func (c *Client) Query(
	ctx context.Context,
	document string,
	variables map[string]any,
	out any,
) error {
	ctx, span := tracer.Start(ctx, "shopify.Query")
	defer span.End()

	err := c.run(ctx, document, variables, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) run(
	ctx context.Context,
	document string,
	variables map[string]any,
	out any,
) error {
	payload, err := json.Marshal(graphQLRequest{Query: document, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshaling graphql request: %w", err)
	}

	var last error
	for attempt := range c.maxAttempts {
		t, err := c.attempt(ctx, attempt, payload)
		if err != nil {
			metrics.ShopifyRequestsTotal.WithLabelValues(stateFailed.String()).Inc()
			return err
		}

		metrics.ShopifyRequestsTotal.WithLabelValues(t.next.String()).Inc()
		c.tracker.observe(t.cost, c.nowFunc())
		if t.cost != nil && t.cost.ThrottleStatus != nil {
			metrics.ShopifyThrottleAvailable.Set(t.cost.ThrottleStatus.CurrentlyAvailable)
		}

		switch t.next {
		case stateThrottledHTTP, stateThrottledAPI:
			last = t.err
			c.tracker.throttled()
			metrics.ShopifyThrottleWaitsTotal.WithLabelValues(t.next.String()).Inc()
			c.log.Warn("shopify throttled, backing off",
				"state", t.next.String(),
				"attempt", attempt+1,
				"max_attempts", c.maxAttempts,
				"wait", t.wait,
				"reason", t.err,
			)
			if err := c.sleep(ctx, t.wait); err != nil {
				return fmt.Errorf("waiting after throttle: %w", err)
			}
			continue

		case stateLowBudgetPause:
			c.log.Debug("shopify budget low, pausing",
				"available", t.cost.ThrottleStatus.CurrentlyAvailable,
				"wait", t.wait,
			)
			if err := c.sleep(ctx, t.wait); err != nil {
				return fmt.Errorf("pausing on low budget: %w", err)
			}

		case stateFailed:
			return t.err

		case stateSucceeded, stateRequesting:
		}

		return decodeData(t.data, out)
	}

	return &RetryExhaustedError{Attempts: c.maxAttempts, Last: last}
}

// attempt performs one request and classifies the response. A non-nil error
// is terminal and never retried.
func (c *Client) attempt(ctx context.Context, attempt int, payload []byte) (transition, error) {
	_, span := tracer.Start(ctx, "shopify.attempt")
	defer span.End()
	span.SetAttributes(attribute.Int("shopify.attempt", attempt+1))

	if c.pacer != nil {
		if err := c.pacer.Wait(ctx); err != nil {
			return transition{}, fmt.Errorf("rate limit: %w", err)
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return transition{}, fmt.Errorf("getting access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return transition{}, fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", token.Value)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return transition{}, &QueryError{Err: fmt.Errorf("executing graphql request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transition{}, &ProtocolError{Reason: "reading response body", Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate()
	}

	t := classify(resp.StatusCode, resp.Header, body, attempt)
	span.SetAttributes(
		attribute.Int("http.status_code", resp.StatusCode),
		attribute.String("shopify.state", t.next.String()),
	)
	return t, nil
}

func decodeData(data json.RawMessage, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ProtocolError{Reason: "decoding data", Err: err}
	}
	return nil
}
