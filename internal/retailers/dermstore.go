package retailers

import "strings"

// dermstorePayload is Dermstore's schema.org Product JSON-LD block.
type dermstorePayload struct {
	Name  Text `json:"name"`
	Brand struct {
		Name Text `json:"name"`
	} `json:"brand"`
	Category        Text                 `json:"category"`
	Description     Text                 `json:"description"`
	URL             Text                 `json:"url"`
	Offers          List[dermstoreOffer] `json:"offers"`
	AggregateRating struct {
		RatingValue Text `json:"ratingValue"`
	} `json:"aggregateRating"`
}

type dermstoreOffer struct {
	Price         Text `json:"price"`
	PriceCurrency Text `json:"priceCurrency"`
	Availability  Text `json:"availability"`
}

type DermstoreExtractor struct{}

func (DermstoreExtractor) Retailer() string { return "dermstore" }

func (DermstoreExtractor) Extract(payload []byte) (Fields, error) {
	var p dermstorePayload
	if err := decodeObject(payload, &p); err != nil {
		return Fields{}, err
	}

	// "Skin Care > Moisturizers > Face Creams" -> "Face Creams"
	category := p.Category.String()
	if i := strings.LastIndex(category, ">"); i >= 0 {
		category = category[i+1:]
	}

	f := Fields{
		Brand:       p.Brand.Name.String(),
		Name:        p.Name.String(),
		ProductType: category,
		// Dermstore puts the ingredient list in the free-text description.
		Ingredients: p.Description.String(),
		Rating:      p.AggregateRating.RatingValue.String(),
		URL:         p.URL.String(),
		Currency:    "USD",
	}
	if len(p.Offers) > 0 {
		offer := p.Offers[0]
		f.Price = offer.Price.String()
		if c := offer.PriceCurrency.String(); c != "" {
			f.Currency = c
		}
		f.Availability = availability(isSchemaInStock(offer.Availability.String()))
	}
	f.Description = joinNonEmpty(f.Name, f.Brand)
	return finish(f)
}

func isSchemaInStock(v string) bool {
	v = strings.TrimPrefix(strings.TrimPrefix(v, "https://"), "http://")
	return v == "schema.org/InStock" || v == "InStock"
}
