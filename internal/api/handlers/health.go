// Package handlers implements HTTP handlers for the feed server.
package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/shopify-zbozi-feed/internal/shopify"
)

// HealthHandler provides health and readiness endpoints.
type HealthHandler struct {
	tokens shopify.TokenProvider
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(tokens shopify.TokenProvider) *HealthHandler {
	return &HealthHandler{tokens: tokens}
}

// Healthz returns 200 if the process is running.
//
// @Summary Liveness check
// @Description Returns 200 if the process is running.
// @Tags health
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /healthz [get]
func (*HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// Readyz returns 200 if an Admin API token can be obtained, 503 otherwise.
// The provider caches tokens, so a steady stream of probes costs one
// exchange per token lifetime.
//
// @Summary Readiness check
// @Description Returns 200 if an Admin API token can be obtained, 503 otherwise.
// @Tags health
// @Produce json
// @Success 200 {object} StatusResponse
// @Failure 503 {object} StatusResponse
// @Router /readyz [get]
func (h *HealthHandler) Readyz(c echo.Context) error {
	if _, err := h.tokens.Token(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, StatusResponse{Status: "unavailable"})
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: "ready"})
}
