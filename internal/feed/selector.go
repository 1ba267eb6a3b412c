package feed

import (
	"strings"

	"github.com/donaldgifford/shopify-zbozi-feed/internal/shopify"
	"github.com/donaldgifford/shopify-zbozi-feed/pkg/textnorm"
)

// sizeOptionNames are matched case-insensitively, in priority order.
var sizeOptionNames = []string{"size", "velikost"}

// SelectVariant returns the first variant with a known inventory quantity
// above zero. Input order breaks ties.
func SelectVariant(variants []shopify.Variant) (shopify.Variant, bool) {
	for i := range variants {
		if inStock(&variants[i]) {
			return variants[i], true
		}
	}
	return shopify.Variant{}, false
}

// SelectPricedVariant returns the first in-stock variant that also has a
// contextual price.
func SelectPricedVariant(variants []shopify.Variant) (shopify.Variant, bool) {
	for i := range variants {
		if !inStock(&variants[i]) {
			continue
		}
		if _, ok := variants[i].Price(); ok {
			return variants[i], true
		}
	}
	return shopify.Variant{}, false
}

func inStock(v *shopify.Variant) bool {
	return v.InventoryQuantity != nil && *v.InventoryQuantity > 0
}

// SizeAttribute returns the normalized value of the "size" option, or of
// "velikost" when there is no "size" option. It returns "" when neither
// exists.
func SizeAttribute(options []shopify.SelectedOption) string {
	opt, ok := sizeOption(options)
	if !ok {
		return ""
	}
	return textnorm.ToXMLSafeText(opt.Value)
}

func sizeOption(options []shopify.SelectedOption) (shopify.SelectedOption, bool) {
	for _, name := range sizeOptionNames {
		for i := range options {
			if strings.EqualFold(strings.TrimSpace(options[i].Name), name) {
				return options[i], true
			}
		}
	}
	return shopify.SelectedOption{}, false
}
