package handlers_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/shopify-zbozi-feed/internal/api/handlers"
	"github.com/donaldgifford/shopify-zbozi-feed/internal/shopify"
	"github.com/donaldgifford/shopify-zbozi-feed/internal/shopify/mocks"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetThrottle(t *testing.T) {
	t.Parallel()

	t.Run("nil tracker returns zeroes", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		handlers.RegisterThrottleRoutes(api, handlers.NewThrottleHandler(nil))

		resp := api.Get("/api/v1/throttle")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"observed":false`)
		assert.NotContains(t, resp.Body.String(), `"observed_at"`)
	})

	t.Run("reports the last observed bucket", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"data":{"shop":{"name":"Acme"}},`+
				`"extensions":{"cost":{"requestedQueryCost":1,"actualQueryCost":1,`+
				`"throttleStatus":{"maximumAvailable":2000,"currentlyAvailable":1999,"restoreRate":100}}}}`)
		}))
		t.Cleanup(srv.Close)

		tokens := mocks.NewMockTokenProvider(t)
		tokens.EXPECT().Token(mock.Anything).Return(shopify.Token{
			Value:  "shpat_test",
			Expiry: time.Now().Add(time.Hour),
		}, nil)

		observed := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
		tracker := &shopify.ThrottleTracker{}
		client := shopify.NewClient(tokens, srv.URL,
			shopify.WithThrottleTracker(tracker),
			shopify.WithClientNowFunc(func() time.Time { return observed }),
			shopify.WithLogger(quietLogger()),
		)

		var out struct {
			Shop struct {
				Name string `json:"name"`
			} `json:"shop"`
		}
		require.NoError(t, client.Query(t.Context(), "{ shop { name } }", nil, &out))

		_, api := humatest.New(t)
		handlers.RegisterThrottleRoutes(api, handlers.NewThrottleHandler(tracker))

		resp := api.Get("/api/v1/throttle")
		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			Observed           bool      `json:"observed"`
			MaximumAvailable   float64   `json:"maximum_available"`
			CurrentlyAvailable float64   `json:"currently_available"`
			RestoreRate        float64   `json:"restore_rate"`
			ObservedAt         time.Time `json:"observed_at"`
			Requests           int64     `json:"requests"`
			Throttled          int64     `json:"throttled"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

		assert.True(t, body.Observed)
		assert.InDelta(t, 2000.0, body.MaximumAvailable, 0)
		assert.InDelta(t, 1999.0, body.CurrentlyAvailable, 0)
		assert.InDelta(t, 100.0, body.RestoreRate, 0)
		assert.True(t, observed.Equal(body.ObservedAt))
		assert.Equal(t, int64(1), body.Requests)
		assert.Zero(t, body.Throttled)
	})
}
