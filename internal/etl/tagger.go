package etl

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vocabulary maps a condition label to the keywords that indicate it.
type Vocabulary map[string][]string

// DefaultVocabulary returns a fresh copy of the built-in skin condition keywords.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		"dryness":  {"dry", "hydration", "hydrating", "moisture", "moisturizing"},
		"acne":     {"acne", "blemish", "pore", "breakout", "clear"},
		"wrinkles": {"wrinkle", "age-defy", "aging", "fine lines", "anti-aging"},
		"redness":  {"redness", "sensitive", "calm", "soothing", "gentle"},
		"dullness": {"dullness", "brightening", "radiance", "glow", "luminous"},
	}
}

// LoadVocabulary reads a YAML document of the form
//
//	dryness: [dry, hydrating]
//	acne: [blemish]
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}
	if len(v) == 0 {
		return nil, fmt.Errorf("vocabulary %s defines no conditions", path)
	}
	return v, nil
}

// Tagger classifies descriptions by whole-word keyword matching.
// It is immutable after construction and safe for concurrent use.
type Tagger struct {
	conditions []string
	patterns   map[string]*regexp.Regexp
}

// NewTagger compiles one word-boundary pattern per condition.
func NewTagger(vocab Vocabulary) (*Tagger, error) {
	t := &Tagger{patterns: make(map[string]*regexp.Regexp, len(vocab))}
	for condition, keywords := range vocab {
		condition = strings.TrimSpace(condition)
		if condition == "" {
			return nil, fmt.Errorf("vocabulary contains an empty condition label")
		}
		alts := make([]string, 0, len(keywords))
		for _, kw := range keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				return nil, fmt.Errorf("condition %q has an empty keyword", condition)
			}
			alts = append(alts, regexp.QuoteMeta(kw))
		}
		if len(alts) == 0 {
			continue
		}
		re, err := regexp.Compile(`\b(?:` + strings.Join(alts, "|") + `)\b`)
		if err != nil {
			return nil, fmt.Errorf("compile condition %q: %w", condition, err)
		}
		t.patterns[condition] = re
		t.conditions = append(t.conditions, condition)
	}
	sort.Strings(t.conditions)
	return t, nil
}

// Tag returns the sorted condition labels whose keywords appear in description.
func (t *Tagger) Tag(description string) []string {
	if strings.TrimSpace(description) == "" {
		return []string{}
	}
	lower := strings.ToLower(description)
	tags := []string{}
	for _, condition := range t.conditions {
		if t.patterns[condition].MatchString(lower) {
			tags = append(tags, condition)
		}
	}
	return tags
}

// Conditions lists the labels the tagger can emit.
func (t *Tagger) Conditions() []string {
	return append([]string(nil), t.conditions...)
}

// TaggerFromFile builds a tagger from a YAML vocabulary, or from the defaults when path is empty.
func TaggerFromFile(path string) (*Tagger, error) {
	vocab := DefaultVocabulary()
	if path != "" {
		v, err := LoadVocabulary(path)
		if err != nil {
			return nil, err
		}
		vocab = v
	}
	return NewTagger(vocab)
}
