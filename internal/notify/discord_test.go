package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/shopify-zbozi-feed/internal/metrics"
)

func testFailure() BuildFailure {
	return BuildFailure{
		Shop:        "acme.myshopify.com",
		Error:       "building feed: fetching page 3: shopify: retries exhausted after 8 attempts",
		FailedAt:    time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
		LastSuccess: time.Date(2025, 3, 14, 9, 15, 0, 0, time.UTC),
	}
}

func TestDiscordNotifier_SendBuildFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
		errMsg     string
	}{
		{
			name:       "failure sends embed",
			statusCode: http.StatusNoContent,
		},
		{
			name:       "discord returns 429 rate limited",
			statusCode: http.StatusTooManyRequests,
			wantErr:    true,
			errMsg:     "rate limited",
		},
		{
			name:       "discord returns 400 error",
			statusCode: http.StatusBadRequest,
			wantErr:    true,
			errMsg:     "discord returned 400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var received discordWebhookPayload

			srv := httptest.NewServer(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
					assert.Equal(t, http.MethodPost, r.Method)

					err := json.NewDecoder(r.Body).Decode(&received)
					assert.NoError(t, err)

					w.WriteHeader(tt.statusCode)
				}),
			)
			defer srv.Close()

			f := testFailure()
			d := NewDiscordNotifier(srv.URL)
			err := d.SendBuildFailure(context.Background(), &f)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}

			require.NoError(t, err)
			require.Len(t, received.Embeds, 1)

			embed := received.Embeds[0]
			assert.Equal(t, colorRed, embed.Color)
			assert.Equal(t, "Feed build failed: acme.myshopify.com", embed.Title)
			assert.Equal(t, f.Error, embed.Description)
			assert.Equal(t, "2025-03-14T09:30:00Z", embed.Timestamp)
			require.Len(t, embed.Fields, 1)
			assert.Equal(t, "2025-03-14T09:15:00Z", embed.Fields[0].Value)
		})
	}
}

func TestDiscordNotifier_NeverSucceeded(t *testing.T) {
	t.Parallel()

	d := NewDiscordNotifier("https://example.com", WithShop("fallback.myshopify.com"))
	embed := d.buildEmbed(&BuildFailure{Error: "boom"})

	assert.Equal(t, "Feed build failed: fallback.myshopify.com", embed.Title)
	assert.Equal(t, "never", embed.Fields[0].Value)
	assert.Empty(t, embed.Timestamp)
}

func TestDiscordNotifier_LongErrorClipped(t *testing.T) {
	t.Parallel()

	d := NewDiscordNotifier("https://example.com")
	embed := d.buildEmbed(&BuildFailure{Error: strings.Repeat("č", maxDescriptionRunes+50)})

	assert.Len(t, []rune(embed.Description), maxDescriptionRunes)
}

func TestDiscordNotifier_NetworkError(t *testing.T) {
	t.Parallel()

	d := NewDiscordNotifier("http://127.0.0.1:1") // nothing listening
	f := testFailure()
	err := d.SendBuildFailure(context.Background(), &f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sending discord webhook")
}

func TestDiscordNotifier_InvalidWebhookURL(t *testing.T) {
	t.Parallel()

	d := NewDiscordNotifier("://not-a-valid-url")
	f := testFailure()
	err := d.SendBuildFailure(context.Background(), &f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating discord request")
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	custom := &http.Client{}
	d := NewDiscordNotifier("https://example.com", WithHTTPClient(custom))
	assert.Same(t, custom, d.client)
}

func getNotificationHistogramSampleCount() uint64 {
	ch := make(chan prometheus.Metric, 1)
	metrics.NotificationDuration.Collect(ch)
	m := <-ch
	pb := &dto.Metric{}
	_ = m.Write(pb)
	return pb.GetHistogram().GetSampleCount()
}

func TestSendBuildFailure_ObservesNotificationDuration(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	before := getNotificationHistogramSampleCount()

	d := NewDiscordNotifier(srv.URL)
	f := testFailure()
	err := d.SendBuildFailure(context.Background(), &f)
	require.NoError(t, err)

	after := getNotificationHistogramSampleCount()
	assert.Greater(t, after, before, "NotificationDuration histogram sample count should increase")
}

// compile-time interface check.
var _ Notifier = (*DiscordNotifier)(nil)
