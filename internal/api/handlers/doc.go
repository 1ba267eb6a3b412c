package handlers

// ErrorResponse is the error body returned by the feed endpoints.
type ErrorResponse struct {
	Error string `json:"error"          example:"building feed: shopify query failed"`
	Hint  string `json:"hint,omitempty" example:"Check the Shopify credentials and the server log."`
}

// StatusResponse is a generic status response body.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}
