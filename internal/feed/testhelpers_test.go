package feed

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/donaldgifford/shopify-zbozi-feed/internal/shopify"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T {
	return &v
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func pricedVariant(id, sku string, qty int, amount string) shopify.Variant {
	v := shopify.Variant{
		ID:                "gid://shopify/ProductVariant/" + id,
		InventoryQuantity: ptr(qty),
		ContextualPricing: &shopify.ContextualPricing{
			Price: &shopify.Money{Amount: amount, CurrencyCode: "CZK"},
		},
	}
	if sku != "" {
		v.SKU = ptr(sku)
	}
	return v
}

func tshirt() shopify.Product {
	v := pricedVariant("4001", "TS-RED-M", 3, "499.0")
	v.Barcode = ptr(" 8590000000012 ")
	v.SelectedOptions = []shopify.SelectedOption{
		{Name: "Color", Value: "Red"},
		{Name: "Size", Value: " M "},
	}
	return shopify.Product{
		ID:              "gid://shopify/Product/1001",
		Title:           "Red T-shirt",
		Vendor:          "Acme &amp; Sons",
		Handle:          "red-t-shirt",
		DescriptionHTML: "<p>Soft cotton.</p>",
		FeaturedImage:   &shopify.Image{URL: "https://cdn.example.com/a.jpg"},
		Images: []shopify.Image{
			{URL: "https://cdn.example.com/a.jpg"},
			{URL: "https://cdn.example.com/b.jpg"},
			{URL: "https://cdn.example.com/b.jpg"},
			{URL: "https://cdn.example.com/c.jpg"},
		},
		Translations: []shopify.Translation{
			{Key: "title", Value: "Červené  tričko"},
			{Key: "description_html", Value: "<p>Měkká&nbsp;bavlna.</p><script>track()</script>"},
		},
		Variants: []shopify.Variant{
			pricedVariant("4000", "TS-RED-S", 0, "499.00"),
			v,
		},
	}
}
