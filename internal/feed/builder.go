package feed

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/donaldgifford/shopify-zbozi-feed/internal/metrics"
	"github.com/donaldgifford/shopify-zbozi-feed/internal/shopify"
	"github.com/donaldgifford/shopify-zbozi-feed/pkg/textnorm"
)

const instrumentation = "github.com/donaldgifford/shopify-zbozi-feed/internal/feed"

var (
	tracer = otel.Tracer(instrumentation)
	meter  = otel.Meter(instrumentation)
)

// MissingPricePolicy decides what happens to a product whose selected
// variant has no contextual price.
type MissingPricePolicy string

// Missing price policies.
const (
	MissingPriceSkip  MissingPricePolicy = "skip"
	MissingPriceEmpty MissingPricePolicy = "empty"
)

// URLStyle decides the shape of the item URL.
type URLStyle string

// URL styles.
const (
	URLStyleVariant URLStyle = "variant" // /products/{handle}?variant={id}
	URLStyleProduct URLStyle = "product" // /products/{handle}
)

// Translation keys read from the product translations.
const (
	translationTitle           = "title"
	translationDescriptionHTML = "description_html"
	translationBodyHTML        = "body_html"
)

// Settings holds the feed policy knobs.
type Settings struct {
	PublicDomain        string
	DeliveryDays        int
	PageSize            int
	MaxAlternateImages  int
	DescriptionLimit    int
	MissingPrice        MissingPricePolicy
	URLStyle            URLStyle
	PreferPricedVariant bool
}

// DefaultSettings returns the settings used when a field is left zero.
func DefaultSettings() Settings {
	return Settings{
		DeliveryDays:       2,
		PageSize:           shopify.DefaultPageSize,
		MaxAlternateImages: 10,
		DescriptionLimit:   textnorm.DefaultDescriptionLimit,
		MissingPrice:       MissingPriceSkip,
		URLStyle:           URLStyleVariant,
	}
}

// Builder assembles feed items from every active product.
type Builder struct {
	lister   shopify.ProductLister
	settings Settings
	domain   string
	log      *slog.Logger
	nowFunc  func() time.Time
	builds   metric.Int64Counter
}

// BuilderOption configures the Builder.
type BuilderOption func(*Builder)

// WithBuilderLogger sets a custom logger.
func WithBuilderLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) {
		b.log = l
	}
}

// WithBuilderNowFunc overrides the time function for testing.
func WithBuilderNowFunc(f func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.nowFunc = f
	}
}

// NewBuilder creates a Builder. A zero PageSize or DescriptionLimit and
// empty policies take their DefaultSettings values.
func NewBuilder(lister shopify.ProductLister, s Settings, opts ...BuilderOption) *Builder {
	d := DefaultSettings()
	if s.PageSize <= 0 {
		s.PageSize = d.PageSize
	}
	if s.MaxAlternateImages < 0 {
		s.MaxAlternateImages = 0
	}
	if s.DescriptionLimit <= 0 {
		s.DescriptionLimit = d.DescriptionLimit
	}
	if s.MissingPrice == "" {
		s.MissingPrice = d.MissingPrice
	}
	if s.URLStyle == "" {
		s.URLStyle = d.URLStyle
	}

	b := &Builder{
		lister:   lister,
		settings: s,
		domain:   bareDomain(s.PublicDomain),
		log:      slog.Default(),
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}

	builds, err := meter.Int64Counter("zfeed.feed.builds",
		metric.WithDescription("Feed renders by outcome."),
	)
	if err != nil {
		b.log.Warn("feed build counter unavailable", "error", err)
		builds = noop.Int64Counter{}
	}
	b.builds = builds

	return b
}

// Build pages through the catalog and returns items in product order. Any
// client error aborts the build and no items are returned.
func (b *Builder) Build(ctx context.Context) ([]Item, BuildStats, error) {
	ctx, span := tracer.Start(ctx, "feed.Build")
	defer span.End()

	var (
		items []Item
		stats BuildStats
	)

	pag := shopify.NewPaginator(
		b.lister,
		shopify.WithPageSize(b.settings.PageSize),
		shopify.WithPaginatorLogger(b.log),
	)

	res, err := pag.Paginate(ctx, func(page *shopify.ProductPage) error {
		for i := range page.Products {
			stats.Products++
			item, reason := b.convert(&page.Products[i])
			if reason != "" {
				stats.skip(reason)
				metrics.FeedProductsSkippedTotal.WithLabelValues(string(reason)).Inc()
				b.log.Debug("product skipped",
					"product_id", page.Products[i].ID,
					"reason", reason,
				)
				continue
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, BuildStats{}, fmt.Errorf("building feed: %w", err)
	}

	stats.Pages = res.PagesUsed
	stats.Items = len(items)
	span.SetAttributes(
		attribute.Int("feed.pages", stats.Pages),
		attribute.Int("feed.products", stats.Products),
		attribute.Int("feed.items", stats.Items),
	)

	return items, stats, nil
}

// Render builds and serializes the feed.
func (b *Builder) Render(ctx context.Context) (*Document, error) {
	start := b.nowFunc()

	items, stats, err := b.Build(ctx)
	if err != nil {
		b.recordOutcome(ctx, false)
		return nil, err
	}

	body, err := Serialize(items)
	if err != nil {
		b.recordOutcome(ctx, false)
		return nil, fmt.Errorf("serializing feed: %w", err)
	}
	b.recordOutcome(ctx, true)

	elapsed := b.nowFunc().Sub(start)
	metrics.FeedBuildDuration.Observe(elapsed.Seconds())
	metrics.FeedItems.Set(float64(len(items)))

	b.log.Info("feed built",
		"items", stats.Items,
		"products", stats.Products,
		"pages", stats.Pages,
		"skipped", stats.Skipped,
		"bytes", len(body),
		"duration", elapsed,
	)

	return &Document{Body: body, Items: len(items), Stats: stats, BuiltAt: start}, nil
}

func (b *Builder) recordOutcome(ctx context.Context, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
		metrics.FeedBuildErrorsTotal.Inc()
	}
	b.builds.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (b *Builder) convert(p *shopify.Product) (Item, SkipReason) {
	variant, ok := b.selectVariant(p.Variants)
	if !ok {
		return Item{}, SkipNoStock
	}

	image := primaryImage(p)
	if image == "" {
		return Item{}, SkipNoImage
	}

	price, ok := formatPrice(&variant)
	if !ok && b.settings.MissingPrice != MissingPriceEmpty {
		return Item{}, SkipNoPrice
	}

	sku := trimmed(variant.SKU)
	id := sku
	if id == "" {
		id = shopify.NumericID(variant.ID)
	}
	if id == "" {
		return Item{}, SkipNoID
	}

	name := textnorm.ToXMLSafeText(localizedTitle(p))

	item := Item{
		ID:              id,
		GroupID:         optional(shopify.NumericID(p.ID)),
		Name:            name,
		URL:             b.itemURL(p.Handle, variant.ID),
		ImageURL:        image,
		PriceVAT:        price,
		Manufacturer:    optional(textnorm.ToXMLSafeText(p.Vendor)),
		EAN:             optional(trimmed(variant.Barcode)),
		ProductNo:       optional(firstNonEmpty(sku, name)),
		Condition:       ConditionNew,
		Description:     textnorm.Description(localizedDescription(p), b.settings.DescriptionLimit),
		AlternateImages: alternateImages(p, image, b.settings.MaxAlternateImages),
		DeliveryDays:    b.settings.DeliveryDays,
	}

	if opt, ok := sizeOption(variant.SelectedOptions); ok {
		if v := textnorm.ToXMLSafeText(opt.Value); v != "" {
			item.Params = append(item.Params, Param{
				Name:  textnorm.ToXMLSafeText(opt.Name),
				Value: v,
			})
		}
	}

	return item, ""
}

func (b *Builder) selectVariant(variants []shopify.Variant) (shopify.Variant, bool) {
	if b.settings.PreferPricedVariant {
		if v, ok := SelectPricedVariant(variants); ok {
			return v, true
		}
	}
	return SelectVariant(variants)
}

func (b *Builder) itemURL(handle, variantID string) string {
	u := "https://" + b.domain + "/products/" + url.PathEscape(handle)
	if b.settings.URLStyle == URLStyleVariant {
		if id := shopify.NumericID(variantID); id != "" {
			u += "?variant=" + url.QueryEscape(id)
		}
	}
	return u
}

func primaryImage(p *shopify.Product) string {
	if p.FeaturedImage != nil {
		if u := strings.TrimSpace(p.FeaturedImage.URL); u != "" {
			return u
		}
	}
	if len(p.Images) > 0 {
		return strings.TrimSpace(p.Images[0].URL)
	}
	return ""
}

func alternateImages(p *shopify.Product, primary string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	seen := map[string]struct{}{primary: {}}
	var out []string
	for i := range p.Images {
		u := strings.TrimSpace(p.Images[i].URL)
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
		if len(out) == limit {
			break
		}
	}
	return out
}

func localizedTitle(p *shopify.Product) string {
	if v, ok := p.Translation(translationTitle); ok {
		return v
	}
	return p.Title
}

func localizedDescription(p *shopify.Product) string {
	if v, ok := p.Translation(translationDescriptionHTML); ok {
		return v
	}
	if v, ok := p.Translation(translationBodyHTML); ok {
		return v
	}
	return p.DescriptionHTML
}

// formatPrice renders the contextual price with exactly two decimals.
func formatPrice(v *shopify.Variant) (string, bool) {
	m, ok := v.Price()
	if !ok {
		return "", false
	}
	r, ok := new(big.Rat).SetString(strings.TrimSpace(m.Amount))
	if !ok {
		return "", false
	}
	return r.FloatString(2), true
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func bareDomain(d string) string {
	d = strings.TrimSpace(d)
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	return strings.TrimRight(d, "/")
}
