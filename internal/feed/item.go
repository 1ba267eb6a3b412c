// Package feed turns Shopify catalog pages into a Zbozi.cz offer feed and
// keeps the last rendered document in a TTL cache.
package feed

import (
	"time"
)

// ConditionNew is the only item condition the bridge emits.
const ConditionNew = "new"

// Param is a name/value pair rendered as a PARAM element.
type Param struct {
	Name  string
	Value string
}

// Item is one SHOPITEM. Optional values are pointers: nil means the element
// is omitted, while a pointer to "0" is a legitimate value.
type Item struct {
	ID              string
	GroupID         *string
	Name            string
	URL             string
	ImageURL        string
	PriceVAT        string
	Manufacturer    *string
	EAN             *string
	ProductNo       *string
	Condition       string
	Description     string
	AlternateImages []string
	Params          []Param
	DeliveryDays    int
}

// SkipReason explains why a product produced no item.
type SkipReason string

// Skip reasons, also used as metric labels.
const (
	SkipNoStock SkipReason = "no_stock"
	SkipNoImage SkipReason = "no_image"
	SkipNoPrice SkipReason = "no_price"
	SkipNoID    SkipReason = "no_id"
)

// BuildStats summarizes one build.
type BuildStats struct {
	Pages    int
	Products int
	Items    int
	Skipped  map[SkipReason]int
}

func (s *BuildStats) skip(r SkipReason) {
	if s.Skipped == nil {
		s.Skipped = make(map[SkipReason]int)
	}
	s.Skipped[r]++
}

// Document is a rendered feed.
type Document struct {
	Body    []byte
	Items   int
	Stats   BuildStats
	BuiltAt time.Time
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
