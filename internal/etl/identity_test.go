package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveProductID(t *testing.T) {
	assert.Equal(t, "acme__hydra-gel__50ml", ResolveProductID("Acme", "Hydra Gel", "50ml"))
	assert.Equal(t, "l-oreal-paris__revitalift-night-cream__1-7-oz", ResolveProductID("L'Oréal Paris", "Revitalift® Night Cream", "1.7 oz"))
	assert.Equal(t, "__lip-balm__", ResolveProductID("", "Lip Balm", ""))
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":                     "",
		"   ":                  "",
		"--Acme--":             "acme",
		"Crème Brûlée":         "creme-brulee",
		"Straße Øl":            "strasse-ol",
		"Æther  &  Co.":        "aether-co",
		"ＡＢＣ 123":              "abc-123",
		"COSRX Snail 96 Mucin": "cosrx-snail-96-mucin",
		"설화수":                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "Normalize(%q)", in)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"Acme", "Hydra Gel 50 ml", "L'Oréal", "a--b__c", "  x  ", "Æ", "acme__hydra-gel"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestResolveProductID_Deterministic(t *testing.T) {
	a := ResolveProductID("The Ordinary", "Niacinamide 10% + Zinc 1%", "30ml")
	b := ResolveProductID("The Ordinary", "Niacinamide 10% + Zinc 1%", "30ml")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, ResolveProductID("The Ordinary", "Niacinamide 10% + Zinc 1%", "60ml"))
}
