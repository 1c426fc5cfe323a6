/**
 * @description
 * Retailer extractors.
 * Each retailer's scraped payload has its own unstable JSON shape; an Extractor maps one
 * of those shapes onto the common Fields record consumed by the transform stage.
 *
 * @notes
 * - Extractors are pure and stateless. They never assume a nested key exists and degrade
 *   missing values to "" rather than failing the row.
 * - A payload that is not a JSON object, or that lacks the product name, is rejected.
 */

package retailers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/skincare-catalog/backend/internal/models"
)

var (
	// ErrMalformedPayload means the payload could not be decoded as a JSON object.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrMissingField means a field required to identify the product is absent.
	ErrMissingField = errors.New("missing required field")
)

// Fields is the retailer-independent intermediate record.
// Price and Rating are left as raw strings; cleaning happens downstream.
type Fields struct {
	Brand        string
	Name         string
	Variant      string
	ProductType  string
	Ingredients  string
	Price        string
	Currency     string
	Rating       string
	URL          string
	Availability models.Availability
	// Description is the display string fed to the condition tagger.
	Description string
}

// Extractor maps one retailer's payload shape to Fields.
type Extractor interface {
	Retailer() string
	Extract(payload []byte) (Fields, error)
}

// Registry selects an Extractor by retailer name.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry builds a registry from the given extractors. Later entries win on duplicate names.
func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{extractors: make(map[string]Extractor, len(extractors))}
	for _, e := range extractors {
		r.extractors[strings.ToLower(e.Retailer())] = e
	}
	return r
}

// DefaultRegistry knows every retailer the crawlers currently scrape.
func DefaultRegistry() *Registry {
	return NewRegistry(
		SephoraExtractor{},
		UltaExtractor{},
		DermstoreExtractor{},
		MoidausExtractor{},
		YesStyleExtractor{},
	)
}

// Lookup returns the extractor registered for retailer.
func (r *Registry) Lookup(retailer string) (Extractor, bool) {
	e, ok := r.extractors[strings.ToLower(strings.TrimSpace(retailer))]
	return e, ok
}

// Retailers lists registered retailer names in sorted order.
func (r *Registry) Retailers() []string {
	names := make([]string, 0, len(r.extractors))
	for name := range r.extractors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// decodeObject unmarshals a payload into a retailer shape.
// Type mismatches on individual keys are tolerated: encoding/json skips the offending
// field and keeps decoding the rest.
func decodeObject(payload []byte, v interface{}) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("%w: expected a JSON object", ErrMalformedPayload)
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

// finish applies defaults shared by every retailer and enforces the name requirement.
func finish(f Fields) (Fields, error) {
	f.Brand = strings.TrimSpace(f.Brand)
	f.Name = strings.TrimSpace(f.Name)
	f.Variant = strings.TrimSpace(f.Variant)
	f.ProductType = strings.TrimSpace(f.ProductType)
	f.Ingredients = strings.TrimSpace(f.Ingredients)
	f.URL = strings.TrimSpace(f.URL)

	if f.Name == "" {
		return Fields{}, fmt.Errorf("%w: product name", ErrMissingField)
	}
	if f.ProductType == "" {
		f.ProductType = models.UncategorizedProductType
	}
	f.Currency = normalizeCurrency(f.Currency)
	if f.Availability != models.AvailabilityInStock {
		f.Availability = models.AvailabilityOutOfStock
	}
	return f, nil
}

func normalizeCurrency(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if len(c) != 3 {
		return "USD"
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "USD"
		}
	}
	return c
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

func prefixedURL(host, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return host + path
}

func availability(inStock bool) models.Availability {
	if inStock {
		return models.AvailabilityInStock
	}
	return models.AvailabilityOutOfStock
}
