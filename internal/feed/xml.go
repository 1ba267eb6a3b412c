package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// Namespace is the Zbozi.cz offer feed namespace.
const Namespace = "http://www.zbozi.cz/ns/offer/1.0"

type xmlShop struct {
	XMLName xml.Name  `xml:"SHOP"`
	Xmlns   string    `xml:"xmlns,attr"`
	Items   []xmlItem `xml:"SHOPITEM"`
}

// xmlItem field order is the element order of the Zbozi.cz schema.
type xmlItem struct {
	ItemID       string     `xml:"ITEM_ID"`
	ItemGroupID  *string    `xml:"ITEMGROUP_ID,omitempty"`
	ProductName  string     `xml:"PRODUCTNAME"`
	URL          string     `xml:"URL"`
	ImgURL       string     `xml:"IMGURL"`
	PriceVAT     string     `xml:"PRICE_VAT"`
	Manufacturer *string    `xml:"MANUFACTURER,omitempty"`
	EAN          *string    `xml:"EAN,omitempty"`
	ProductNo    *string    `xml:"PRODUCTNO,omitempty"`
	Condition    string     `xml:"CONDITION"`
	Description  string     `xml:"DESCRIPTION"`
	AltImages    []string   `xml:"IMGURL_ALTERNATIVE"`
	Params       []xmlParam `xml:"PARAM"`
	DeliveryDate int        `xml:"DELIVERY_DATE"`
}

type xmlParam struct {
	Name  string `xml:"PARAM_NAME"`
	Value string `xml:"VAL"`
}

// Serialize renders items as a Zbozi.cz SHOP document with an XML
// declaration and two-space indentation.
func Serialize(items []Item) ([]byte, error) {
	shop := xmlShop{
		Xmlns: Namespace,
		Items: make([]xmlItem, 0, len(items)),
	}
	for i := range items {
		shop.Items = append(shop.Items, toXMLItem(&items[i]))
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(shop); err != nil {
		return nil, fmt.Errorf("encoding SHOP: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("flushing SHOP: %w", err)
	}
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

func toXMLItem(it *Item) xmlItem {
	x := xmlItem{
		ItemID:       it.ID,
		ItemGroupID:  present(it.GroupID),
		ProductName:  it.Name,
		URL:          it.URL,
		ImgURL:       it.ImageURL,
		PriceVAT:     it.PriceVAT,
		Manufacturer: present(it.Manufacturer),
		EAN:          present(it.EAN),
		ProductNo:    present(it.ProductNo),
		Condition:    it.Condition,
		Description:  it.Description,
		AltImages:    it.AlternateImages,
		DeliveryDate: it.DeliveryDays,
	}
	if x.Condition == "" {
		x.Condition = ConditionNew
	}
	for _, p := range it.Params {
		x.Params = append(x.Params, xmlParam(p))
	}
	return x
}

// present drops optionals that hold an empty string so they are omitted
// rather than emitted as empty elements.
func present(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
