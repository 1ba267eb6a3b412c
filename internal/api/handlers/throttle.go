package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/shopify-zbozi-feed/internal/shopify"
)

// ThrottleHandler provides the Admin API throttle status endpoint.
type ThrottleHandler struct {
	tracker *shopify.ThrottleTracker
}

// NewThrottleHandler creates a new ThrottleHandler.
func NewThrottleHandler(t *shopify.ThrottleTracker) *ThrottleHandler {
	return &ThrottleHandler{tracker: t}
}

// ThrottleBody describes the Admin API cost bucket.
type ThrottleBody struct {
	Observed           bool       `json:"observed"              example:"true"                 doc:"Whether a throttle status has been seen yet"`
	MaximumAvailable   float64    `json:"maximum_available"     example:"2000"                 doc:"Bucket size in cost units"`
	CurrentlyAvailable float64    `json:"currently_available"   example:"1950"                 doc:"Cost units available at the last response"`
	RestoreRate        float64    `json:"restore_rate"          example:"100"                  doc:"Cost units restored per second"`
	ObservedAt         *time.Time `json:"observed_at,omitempty" example:"2025-06-15T14:30:00Z" doc:"When the status was reported"`
	Requests           int64      `json:"requests"              example:"42"                   doc:"GraphQL attempts since start"`
	Throttled          int64      `json:"throttled"             example:"1"                    doc:"Attempts that hit a throttle"`
}

// ThrottleOutput is the response for the throttle endpoint.
type ThrottleOutput struct {
	Body ThrottleBody
}

// GetThrottle returns the last throttle status seen from Shopify.
func (h *ThrottleHandler) GetThrottle(_ context.Context, _ *struct{}) (*ThrottleOutput, error) {
	resp := &ThrottleOutput{}
	if h.tracker == nil {
		return resp, nil
	}

	snap, seen := h.tracker.Snapshot()
	resp.Body.Observed = seen
	resp.Body.MaximumAvailable = snap.Status.MaximumAvailable
	resp.Body.CurrentlyAvailable = snap.Status.CurrentlyAvailable
	resp.Body.RestoreRate = snap.Status.RestoreRate
	resp.Body.ObservedAt = timePtr(snap.ObservedAt)
	resp.Body.Requests = snap.Requests
	resp.Body.Throttled = snap.Throttled

	return resp, nil
}

// RegisterThrottleRoutes registers the throttle endpoint with the Huma API.
func RegisterThrottleRoutes(api huma.API, h *ThrottleHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-throttle",
		Method:      http.MethodGet,
		Path:        "/api/v1/throttle",
		Summary:     "Get Shopify throttle status",
		Description: "Returns the most recent cost bucket reported by the Admin API and request counters.",
		Tags:        []string{"shopify"},
	}, h.GetThrottle)
}
