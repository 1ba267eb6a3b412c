package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/shopify-zbozi-feed/internal/api/handlers"
)

func TestPrintFeedStatus(t *testing.T) {
	t.Parallel()

	built := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		status  handlers.FeedStatusBody
		want    []string
		notWant []string
	}{
		{
			name: "cached document",
			status: handlers.FeedStatusBody{
				Cached:     true,
				BuiltAt:    &built,
				TTLSeconds: 900,
				Items:      12,
				Bytes:      2048,
				Pages:      1,
				Products:   15,
				Skipped:    map[string]int{"no_stock": 2, "no_image": 1},
			},
			want:    []string{"Cached:", "true", "15m0s", "2.0 KiB", "15 (1 pages)", "Skipped no_image:", "Skipped no_stock:"},
			notWant: []string{"Last error"},
		},
		{
			name: "failed build",
			status: handlers.FeedStatusBody{
				TTLSeconds: 900,
				LastError:  "building feed: shopify retries exhausted",
				LastFailed: &built,
			},
			want: []string{"Built:", "-", "Last error:", "retries exhausted"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			require.NoError(t, printFeedStatus(&buf, &tt.status))

			out := buf.String()
			for _, s := range tt.want {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.notWant {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestPrintThrottle(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, printThrottle(&buf, &handlers.ThrottleBody{Requests: 3}))
	assert.Contains(t, buf.String(), "not yet")

	buf.Reset()
	require.NoError(t, printThrottle(&buf, &handlers.ThrottleBody{
		Observed:           true,
		MaximumAvailable:   2000,
		CurrentlyAvailable: 1500,
		RestoreRate:        100,
		Requests:           9,
		Throttled:          2,
	}))
	assert.Contains(t, buf.String(), "1500 / 2000")
	assert.Contains(t, buf.String(), "100/s")
}

func TestHumanBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{3 << 20, "3.0 MiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, humanBytes(tt.n))
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "žžž...", truncate("žžžžžžžž", 6))
}

func TestOutputJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, outputJSON(&buf, map[string]int{"items": 3}))
	assert.JSONEq(t, `{"items":3}`, buf.String())
}
