package retailers

import (
	"strings"
)

// ultaPayload is the product entry lifted from Ulta's __APOLLO_STATE__.
type ultaPayload struct {
	Name  Text `json:"name"`
	Brand struct {
		Name Text `json:"name"`
	} `json:"brand"`
	Attributes []struct {
		ID    Text `json:"id"`
		Value Text `json:"value"`
	} `json:"attributes"`
	Categories []struct {
		Name Text `json:"name"`
	} `json:"categories"`
	Ingredients struct {
		Value Text `json:"value"`
	} `json:"ingredients"`
	Pricing struct {
		ListPrice Text `json:"listPrice"`
	} `json:"pricing"`
	Rating Text `json:"rating"`
	URL    Text `json:"url"`
	Stock  struct {
		StockLevelStatus Text `json:"stockLevelStatus"`
	} `json:"stock"`
}

type UltaExtractor struct{}

func (UltaExtractor) Retailer() string { return "ulta" }

func (UltaExtractor) Extract(payload []byte) (Fields, error) {
	var p ultaPayload
	if err := decodeObject(payload, &p); err != nil {
		return Fields{}, err
	}

	var variant string
	for _, attr := range p.Attributes {
		if attr.ID.String() == "size" {
			variant = attr.Value.String()
			break
		}
	}
	var productType string
	if len(p.Categories) > 0 {
		productType = p.Categories[0].Name.String()
	}

	f := Fields{
		Brand:        p.Brand.Name.String(),
		Name:         p.Name.String(),
		Variant:      variant,
		ProductType:  productType,
		Ingredients:  p.Ingredients.Value.String(),
		Price:        p.Pricing.ListPrice.String(),
		Currency:     "USD",
		Rating:       p.Rating.String(),
		URL:          prefixedURL("https://www.ulta.com", p.URL.String()),
		Availability: availability(!strings.EqualFold(p.Stock.StockLevelStatus.String(), "OUT_OF_STOCK")),
	}
	f.Description = joinNonEmpty(f.Brand, f.Name)
	return finish(f)
}
