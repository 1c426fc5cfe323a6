package retailers

import "strings"

// sephoraPayload is the product object embedded in Sephora's PageJSON script.
type sephoraPayload struct {
	DisplayName Text `json:"displayName"`
	Brand       struct {
		DisplayName Text `json:"displayName"`
	} `json:"brand"`
	ParentCategory struct {
		DisplayName Text `json:"displayName"`
	} `json:"parentCategory"`
	CurrentSku struct {
		VariantValue   Text `json:"variantValue"`
		Size           Text `json:"size"`
		ListPrice      Text `json:"listPrice"`
		IsAppAvailable Flag `json:"isAppAvailable"`
	} `json:"currentSku"`
	RegularChildSkus []struct {
		CustomContainer struct {
			Child struct {
				Components []struct {
					Name  Text `json:"name"`
					Props struct {
						Ingredients Text `json:"ingredients"`
					} `json:"props"`
				} `json:"components"`
			} `json:"child"`
		} `json:"customContainer"`
	} `json:"regularChildSkus"`
	Rating    Text `json:"rating"`
	TargetURL Text `json:"targetUrl"`
	QuickLook struct {
		Heading Text `json:"heading"`
	} `json:"quickLook"`
}

type SephoraExtractor struct{}

func (SephoraExtractor) Retailer() string { return "sephora" }

func (SephoraExtractor) Extract(payload []byte) (Fields, error) {
	var p sephoraPayload
	if err := decodeObject(payload, &p); err != nil {
		return Fields{}, err
	}

	variant := p.CurrentSku.VariantValue.String()
	if variant == "" {
		variant = p.CurrentSku.Size.String()
	}

	var ingredients string
	if len(p.RegularChildSkus) > 0 {
		for _, c := range p.RegularChildSkus[0].CustomContainer.Child.Components {
			if strings.EqualFold(c.Name.String(), "ingredients") {
				ingredients = c.Props.Ingredients.String()
				break
			}
		}
	}

	f := Fields{
		Brand:        p.Brand.DisplayName.String(),
		Name:         p.DisplayName.String(),
		Variant:      variant,
		ProductType:  p.ParentCategory.DisplayName.String(),
		Ingredients:  ingredients,
		Price:        p.CurrentSku.ListPrice.String(),
		Currency:     "USD",
		Rating:       p.Rating.String(),
		URL:          prefixedURL("https://www.sephora.com", p.TargetURL.String()),
		Availability: availability(bool(p.CurrentSku.IsAppAvailable)),
	}
	f.Description = joinNonEmpty(f.Brand, f.Name, p.QuickLook.Heading.String())
	return finish(f)
}
