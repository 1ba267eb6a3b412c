package shopify

import (
	"context"
	"fmt"
	"strings"
)

// DefaultPageSize is the number of products requested per page.
const DefaultPageSize = 100

// DefaultImageLimit is the number of product images requested: ten
// alternates plus the featured image, which is excluded from them.
const DefaultImageLimit = 11

// variantsLimit is the largest variants page the products query asks for.
const variantsLimit = 100

const productsQuery = `query ActiveProducts($first: Int!, $after: String, $country: CountryCode!, $locale: String!, $images: Int!, $variants: Int!) {
  products(first: $first, after: $after, query: "status:active") {
    pageInfo {
      hasNextPage
      endCursor
    }
    nodes {
      id
      title
      vendor
      handle
      descriptionHtml
      featuredImage {
        url
      }
      images(first: $images) {
        nodes {
          url
        }
      }
      translations(locale: $locale) {
        key
        value
      }
      variants(first: $variants) {
        pageInfo {
          hasNextPage
        }
        nodes {
          id
          sku
          barcode
          inventoryQuantity
          selectedOptions {
            name
            value
          }
          contextualPricing(context: {country: $country}) {
            price {
              amount
              currencyCode
            }
          }
        }
      }
    }
  }
}`

// Image is a product image reference.
type Image struct {
	URL string `json:"url"`
}

// Translation is one translated product field.
type Translation struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SelectedOption is a variant option such as size.
type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Money is a decimal amount with its currency.
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// ContextualPricing is the market-specific price of a variant.
type ContextualPricing struct {
	Price *Money `json:"price"`
}

// Variant is a purchasable configuration of a product.
type Variant struct {
	ID                string             `json:"id"`
	SKU               *string            `json:"sku"`
	Barcode           *string            `json:"barcode"`
	InventoryQuantity *int               `json:"inventoryQuantity"`
	SelectedOptions   []SelectedOption   `json:"selectedOptions"`
	ContextualPricing *ContextualPricing `json:"contextualPricing"`
}

// Price returns the contextual price when the API resolved one.
func (v *Variant) Price() (Money, bool) {
	if v.ContextualPricing == nil || v.ContextualPricing.Price == nil {
		return Money{}, false
	}
	if strings.TrimSpace(v.ContextualPricing.Price.Amount) == "" {
		return Money{}, false
	}
	return *v.ContextualPricing.Price, true
}

// Product is a raw product node from the products connection.
type Product struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Vendor          string        `json:"vendor"`
	Handle          string        `json:"handle"`
	DescriptionHTML string        `json:"descriptionHtml"`
	FeaturedImage   *Image        `json:"featuredImage"`
	Images          []Image       `json:"-"`
	Translations    []Translation `json:"translations"`
	Variants        []Variant     `json:"-"`
}

// Translation returns the translated value for key if present and
// non-blank.
func (p *Product) Translation(key string) (string, bool) {
	for i := range p.Translations {
		if p.Translations[i].Key == key && strings.TrimSpace(p.Translations[i].Value) != "" {
			return p.Translations[i].Value, true
		}
	}
	return "", false
}

// ProductPage is one page of the products connection.
type ProductPage struct {
	Products    []Product
	EndCursor   string
	HasNextPage bool
}

type productNode struct {
	Product
	ImageConn struct {
		Nodes []Image `json:"nodes"`
	} `json:"images"`
	VariantConn struct {
		PageInfo struct {
			HasNextPage bool `json:"hasNextPage"`
		} `json:"pageInfo"`
		Nodes []Variant `json:"nodes"`
	} `json:"variants"`
}

type productsData struct {
	Products struct {
		PageInfo struct {
			HasNextPage bool    `json:"hasNextPage"`
			EndCursor   *string `json:"endCursor"`
		} `json:"pageInfo"`
		Nodes []productNode `json:"nodes"`
	} `json:"products"`
}

// ProductsPage implements ProductLister by running the active products
// query for one page.
func (c *Client) ProductsPage(ctx context.Context, req PageRequest) (*ProductPage, error) {
	first := req.First
	if first <= 0 {
		first = DefaultPageSize
	}

	vars := map[string]any{
		"first":    first,
		"country":  c.country,
		"locale":   c.locale,
		"images":   c.imageLimit,
		"variants": variantsLimit,
	}
	if req.After != "" {
		vars["after"] = req.After
	}

	var data productsData
	if err := c.Query(ctx, productsQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("querying products page: %w", err)
	}

	page := &ProductPage{
		Products:    make([]Product, 0, len(data.Products.Nodes)),
		HasNextPage: data.Products.PageInfo.HasNextPage,
	}
	if data.Products.PageInfo.EndCursor != nil {
		page.EndCursor = *data.Products.PageInfo.EndCursor
	}
	for i := range data.Products.Nodes {
		n := &data.Products.Nodes[i]
		p := n.Product
		p.Images = n.ImageConn.Nodes
		p.Variants = n.VariantConn.Nodes
		if n.VariantConn.PageInfo.HasNextPage {
			c.log.Warn("product has more variants than fetched, later variants are ignored",
				"product_id", p.ID,
				"fetched", len(p.Variants),
			)
		}
		page.Products = append(page.Products, p)
	}

	return page, nil
}

// NumericID returns the trailing numeric part of a global id such as
// "gid://shopify/ProductVariant/123". Ids without a slash are returned
// unchanged.
func NumericID(gid string) string {
	gid = strings.TrimSpace(gid)
	if i := strings.LastIndexByte(gid, '/'); i >= 0 {
		gid = gid[i+1:]
	}
	if i := strings.IndexByte(gid, '?'); i >= 0 {
		gid = gid[:i]
	}
	return gid
}
