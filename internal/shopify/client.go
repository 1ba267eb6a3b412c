// Package shopify provides a throttle-aware Shopify Admin GraphQL client
// abstracted behind interfaces for testability.
package shopify

import (
	"context"
	"time"
)

// Token is an Admin API access token and the moment it stops being valid.
type Token struct {
	Value  string
	Expiry time.Time
}

// TokenProvider defines the interface for obtaining Admin API tokens.
type TokenProvider interface {
	Token(ctx context.Context) (Token, error)
	Invalidate()
}

// ProductLister fetches one page of active products.
type ProductLister interface {
	ProductsPage(ctx context.Context, req PageRequest) (*ProductPage, error)
}

// PageRequest defines the parameters for a product page query.
type PageRequest struct {
	After string
	First int
}
