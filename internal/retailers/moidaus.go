package retailers

import (
	"github.com/shopspring/decimal"
)

// moidausPayload is a Shopify product.js document.
type moidausPayload struct {
	Title    Text `json:"title"`
	Vendor   Text `json:"vendor"`
	Type     Text `json:"type"`
	Variants []struct {
		Title Text `json:"title"`
	} `json:"variants"`
	DescriptionHTML Text `json:"description_html"`
	// Price is in minor units (cents).
	Price     Text `json:"price"`
	URL       Text `json:"url"`
	Available Flag `json:"available"`
}

type MoidausExtractor struct{}

func (MoidausExtractor) Retailer() string { return "moidaus" }

func (MoidausExtractor) Extract(payload []byte) (Fields, error) {
	var p moidausPayload
	if err := decodeObject(payload, &p); err != nil {
		return Fields{}, err
	}

	var variant string
	if len(p.Variants) > 0 {
		variant = p.Variants[0].Title.String()
	}

	f := Fields{
		Brand:        p.Vendor.String(),
		Name:         p.Title.String(),
		Variant:      variant,
		ProductType:  p.Type.String(),
		Ingredients:  textAfterHeading(p.DescriptionHTML.String()),
		Price:        centsToPrice(p.Price.String()),
		Currency:     "USD",
		URL:          prefixedURL("https://moidaus.com", p.URL.String()),
		Availability: availability(bool(p.Available)),
	}
	f.Description = joinNonEmpty(f.Brand, f.Name)
	return finish(f)
}

// centsToPrice converts "2500" to "25.00". Zero or unparsable amounts mean no price.
func centsToPrice(raw string) string {
	if raw == "" {
		return ""
	}
	cents, err := decimal.NewFromString(raw)
	if err != nil || cents.IsZero() {
		return ""
	}
	return cents.Shift(-2).StringFixed(2)
}
