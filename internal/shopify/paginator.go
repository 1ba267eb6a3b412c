package shopify

import (
	"context"
	"fmt"
	"log/slog"
)

// Stop reasons reported by Paginate.
const (
	StopNoMorePages = "no_more_pages"
	StopMaxPages    = "max_pages"
)

// Paginator walks the products connection from the first page until the
// API reports no further pages.
type Paginator struct {
	lister   ProductLister
	logger   *slog.Logger
	pageSize int
	maxPages int
}

// PaginatorOption configures the Paginator.
type PaginatorOption func(*Paginator)

// WithPageSize overrides the default page size.
func WithPageSize(size int) PaginatorOption {
	return func(p *Paginator) {
		if size > 0 {
			p.pageSize = size
		}
	}
}

// WithMaxPages caps the number of pages fetched. Zero means no cap.
func WithMaxPages(n int) PaginatorOption {
	return func(p *Paginator) {
		p.maxPages = n
	}
}

// WithPaginatorLogger sets the logger.
func WithPaginatorLogger(l *slog.Logger) PaginatorOption {
	return func(p *Paginator) {
		p.logger = l
	}
}

// NewPaginator creates a new Paginator.
func NewPaginator(lister ProductLister, opts ...PaginatorOption) *Paginator {
	p := &Paginator{
		lister:   lister,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PaginateResult summarizes a completed walk.
type PaginateResult struct {
	PagesUsed int
	Products  int
	StoppedAt string
}

// Paginate fetches pages in order and hands each one to visit. The first
// error from the lister or from visit aborts the walk.
func (p *Paginator) Paginate(
	ctx context.Context,
	visit func(page *ProductPage) error,
) (*PaginateResult, error) {
	result := &PaginateResult{}
	req := PageRequest{First: p.pageSize}
	seen := make(map[string]struct{})

	for {
		if p.maxPages > 0 && result.PagesUsed >= p.maxPages {
			if p.logger != nil {
				p.logger.Warn("page cap reached before catalog end", "max_pages", p.maxPages)
			}
			result.StoppedAt = StopMaxPages
			return result, nil
		}

		page, err := p.lister.ProductsPage(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", result.PagesUsed+1, err)
		}

		result.PagesUsed++
		result.Products += len(page.Products)

		if err := visit(page); err != nil {
			return nil, err
		}

		if !page.HasNextPage {
			result.StoppedAt = StopNoMorePages
			return result, nil
		}

		if page.EndCursor == "" {
			return nil, &ProtocolError{Reason: fmt.Sprintf("page %d has next page but no cursor", result.PagesUsed)}
		}
		if _, dup := seen[page.EndCursor]; dup {
			return nil, &ProtocolError{Reason: fmt.Sprintf("cursor %q repeated", page.EndCursor)}
		}
		seen[page.EndCursor] = struct{}{}
		req.After = page.EndCursor
	}
}
