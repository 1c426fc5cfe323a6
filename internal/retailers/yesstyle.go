package retailers

import "strings"

// yesStylePayload is the product node of YesStyle's __NEXT_DATA__.
type yesStylePayload struct {
	Name  Text `json:"name"`
	Brand struct {
		Name Text `json:"name"`
	} `json:"brand"`
	Options []struct {
		Name       Text `json:"name"`
		IsSelected Flag `json:"isSelected"`
	} `json:"options"`
	Category struct {
		Name Text `json:"name"`
	} `json:"category"`
	Details []struct {
		Title   Text `json:"title"`
		Content Text `json:"content"`
	} `json:"details"`
	Price struct {
		Currency Text `json:"currency"`
		Original struct {
			Value Text `json:"value"`
		} `json:"original"`
		Final struct {
			Value Text `json:"value"`
		} `json:"final"`
	} `json:"price"`
	Review struct {
		AverageRating Text `json:"averageRating"`
	} `json:"review"`
	PdpURL Text `json:"pdpURL"`
}

type YesStyleExtractor struct{}

func (YesStyleExtractor) Retailer() string { return "yesstyle" }

func (YesStyleExtractor) Extract(payload []byte) (Fields, error) {
	var p yesStylePayload
	if err := decodeObject(payload, &p); err != nil {
		return Fields{}, err
	}

	var variant string
	for _, opt := range p.Options {
		if opt.IsSelected {
			variant = opt.Name.String()
			break
		}
	}
	var ingredients string
	for _, d := range p.Details {
		if strings.EqualFold(d.Title.String(), "ingredients") {
			ingredients = htmlText(d.Content.String())
			break
		}
	}
	price := p.Price.Original.Value.String()
	if price == "" {
		price = p.Price.Final.Value.String()
	}

	f := Fields{
		Brand:       p.Brand.Name.String(),
		Name:        p.Name.String(),
		Variant:     variant,
		ProductType: p.Category.Name.String(),
		Ingredients: ingredients,
		Price:       price,
		Currency:    p.Price.Currency.String(),
		Rating:      p.Review.AverageRating.String(),
		URL:         prefixedURL("https://www.yesstyle.com", p.PdpURL.String()),
		// YesStyle only lists purchasable items.
		Availability: availability(true),
	}
	f.Description = joinNonEmpty(f.Brand, f.Name)
	return finish(f)
}
