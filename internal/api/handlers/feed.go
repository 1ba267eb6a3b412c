package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/shopify-zbozi-feed/internal/feed"
)

// FeedHint is returned with every failed feed request.
const FeedHint = "Check SHOPIFY_SHOP, SHOPIFY_CLIENT_ID and SHOPIFY_CLIENT_SECRET, " +
	"and that the app has the read_products and read_translations scopes."

// FeedSource returns the current feed document.
type FeedSource interface {
	Get(ctx context.Context) (*feed.Document, error)
}

// FeedHandler serves the Zbozi.cz XML document.
type FeedHandler struct {
	source FeedSource
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(s FeedSource) *FeedHandler {
	return &FeedHandler{source: s}
}

// Feed returns the cached feed, building it on a miss.
//
// @Summary Zbozi.cz product feed
// @Description Returns the SHOP document. A miss triggers a full catalog build.
// @Tags feed
// @Produce xml
// @Success 200 {string} string "SHOP document"
// @Failure 500 {object} ErrorResponse
// @Router /feed.xml [get]
// @Router /feed-cz.xml [get]
func (h *FeedHandler) Feed(c echo.Context) error {
	doc, err := h.source.Get(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Hint:  FeedHint,
		})
	}

	hdr := c.Response().Header()
	hdr.Set("X-Feed-Items", strconv.Itoa(doc.Items))
	if !doc.BuiltAt.IsZero() {
		hdr.Set(echo.HeaderLastModified, doc.BuiltAt.UTC().Format(http.TimeFormat))
	}

	return c.Blob(http.StatusOK, "application/xml; charset=utf-8", doc.Body)
}

// RegisterFeedRoutes mounts the feed under both published paths.
func RegisterFeedRoutes(e *echo.Echo, h *FeedHandler) {
	e.GET("/feed.xml", h.Feed)
	e.GET("/feed-cz.xml", h.Feed)
}
