package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/shopify-zbozi-feed/internal/feed"
)

// FeedCache is the part of the feed cache the ops API reads and drives.
type FeedCache interface {
	Status() feed.CacheStatus
	TTL() time.Duration
	Refresh(ctx context.Context) (*feed.Document, error)
}

// FeedStatusHandler exposes the cache state and a forced rebuild.
type FeedStatusHandler struct {
	cache FeedCache
}

// NewFeedStatusHandler creates a new FeedStatusHandler.
func NewFeedStatusHandler(c FeedCache) *FeedStatusHandler {
	return &FeedStatusHandler{cache: c}
}

// FeedStatusBody describes the cache slot.
type FeedStatusBody struct {
	Cached     bool           `json:"cached"                example:"true"                 doc:"Whether a fresh document is held"`
	BuiltAt    *time.Time     `json:"built_at,omitempty"    example:"2025-06-15T14:30:00Z" doc:"When the held document was built"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty"  example:"2025-06-15T14:45:00Z" doc:"When the held document goes stale"`
	TTLSeconds int            `json:"ttl_seconds"           example:"900"                  doc:"Configured document lifetime"`
	Items      int            `json:"items"                 example:"412"                  doc:"SHOPITEM count"`
	Bytes      int            `json:"bytes"                 example:"801234"               doc:"Serialized size"`
	Pages      int            `json:"pages"                 example:"5"                    doc:"Catalog pages read by the last build"`
	Products   int            `json:"products"              example:"460"                  doc:"Products seen by the last build"`
	Skipped    map[string]int `json:"skipped,omitempty"                                    doc:"Skipped products by reason"`
	LastError  string         `json:"last_error,omitempty"                                 doc:"Error of the last failed build"`
	LastFailed *time.Time     `json:"last_failed,omitempty"                                doc:"When the last build failed"`
}

// FeedStatusOutput is the response for the status and refresh endpoints.
type FeedStatusOutput struct {
	Body FeedStatusBody
}

// GetStatus reports the cache slot without building.
func (h *FeedStatusHandler) GetStatus(_ context.Context, _ *struct{}) (*FeedStatusOutput, error) {
	return h.output(), nil
}

// Refresh forces a rebuild and reports the new slot.
func (h *FeedStatusHandler) Refresh(ctx context.Context, _ *struct{}) (*FeedStatusOutput, error) {
	if _, err := h.cache.Refresh(ctx); err != nil {
		return nil, huma.Error502BadGateway("feed refresh failed: " + err.Error())
	}
	return h.output(), nil
}

func (h *FeedStatusHandler) output() *FeedStatusOutput {
	s := h.cache.Status()

	resp := &FeedStatusOutput{}
	b := &resp.Body
	b.Cached = s.Cached
	b.TTLSeconds = int(h.cache.TTL().Seconds())
	b.Items = s.Items
	b.Bytes = s.Bytes
	b.Pages = s.Stats.Pages
	b.Products = s.Stats.Products
	b.LastError = s.LastError
	b.BuiltAt = timePtr(s.BuiltAt)
	b.ExpiresAt = timePtr(s.ExpiresAt)
	b.LastFailed = timePtr(s.LastFailed)

	if len(s.Stats.Skipped) > 0 {
		b.Skipped = make(map[string]int, len(s.Stats.Skipped))
		for reason, n := range s.Stats.Skipped {
			b.Skipped[string(reason)] = n
		}
	}

	return resp
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}

// RegisterFeedStatusRoutes registers the feed ops endpoints with the Huma API.
func RegisterFeedStatusRoutes(api huma.API, h *FeedStatusHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-feed-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/feed/status",
		Summary:     "Get feed cache status",
		Description: "Returns the cached document's age, size and the last build's statistics.",
		Tags:        []string{"feed"},
	}, h.GetStatus)

	huma.Register(api, huma.Operation{
		OperationID: "refresh-feed",
		Method:      http.MethodPost,
		Path:        "/api/v1/feed/refresh",
		Summary:     "Rebuild the feed",
		Description: "Rebuilds the feed from Shopify regardless of the cache age. A failed build leaves the cache unchanged.",
		Tags:        []string{"feed"},
	}, h.Refresh)
}
