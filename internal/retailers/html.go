package retailers

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var ingredientsHeading = regexp.MustCompile(`(?i)ingredients`)

// htmlText returns the visible text of an HTML fragment, space separated.
func htmlText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body})
	if err != nil {
		return ""
	}
	var parts []string
	for _, n := range nodes {
		collectText(n, &parts)
	}
	return strings.Join(parts, " ")
}

func collectText(n *html.Node, parts *[]string) {
	switch n.Type {
	case html.TextNode:
		if s := strings.Join(strings.Fields(n.Data), " "); s != "" {
			*parts = append(*parts, s)
		}
	case html.ElementNode:
		if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

// textAfterHeading finds the first <strong> or <b> whose text mentions ingredients and
// returns the text of the node that follows it, e.g.
// "<p><strong>Ingredients:</strong> Water, Glycerin</p>" -> "Water, Glycerin".
func textAfterHeading(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body})
	if err != nil {
		return ""
	}
	for _, n := range nodes {
		if heading := findHeading(n); heading != nil {
			sib := heading.NextSibling
			for sib != nil && sib.Type == html.TextNode && strings.TrimSpace(sib.Data) == "" {
				sib = sib.NextSibling
			}
			if sib == nil {
				return ""
			}
			var parts []string
			collectText(sib, &parts)
			return strings.TrimLeft(strings.Join(parts, " "), ": ")
		}
	}
	return ""
}

func findHeading(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && (n.DataAtom == atom.Strong || n.DataAtom == atom.B) {
		var parts []string
		collectText(n, &parts)
		if ingredientsHeading.MatchString(strings.Join(parts, " ")) {
			return n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findHeading(c); found != nil {
			return found
		}
	}
	return nil
}
