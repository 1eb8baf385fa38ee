package htmldoc

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// chromePattern matches class and id values of navigation and other
// boilerplate containers on word boundaries.
var chromePattern = regexp.MustCompile(
	`(?i)(^|[^a-z])(nav|navbar|navigation|menu|topnav|sidenav|breadcrumb|breadcrumbs|` +
		`site-header|page-header|masthead|banner|` +
		`footer|site-footer|page-footer|colophon|` +
		`sidebar|widget-area|widget|aside)([^a-z]|$)`)

// Link density above which an aggressive check treats a container as
// navigation, and the number of links it must hold.
const (
	maxLinkDensity = 0.6
	minNavLinks    = 4
)

type exclusionChecker struct {
	mode    Exclusion
	body    *html.Node
	wrapper *html.Node // single top-level div or main, if any
	density map[*html.Node]float64
}

func newExclusionChecker(mode Exclusion, doc *html.Node) *exclusionChecker {
	ec := &exclusionChecker{
		mode:    mode,
		body:    findElement(doc, "body"),
		density: make(map[*html.Node]float64),
	}
	if ec.body == nil {
		ec.body = doc
	}
	ec.wrapper = topLevelWrapper(ec.body)
	return ec
}

// topLevelWrapper finds the <div id="wrapper"> style element that holds
// the whole page, if there is exactly one.
func topLevelWrapper(body *html.Node) *html.Node {
	var found []*html.Node
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "div", "main":
			found = append(found, c)
		case "script", "style", "noscript", "template":
		default:
			return nil
		}
	}
	if len(found) == 1 {
		return found[0]
	}
	return nil
}

// excluded reports whether the subtree rooted at n is site chrome.
func (ec *exclusionChecker) excluded(n *html.Node) bool {
	if n.Type != html.ElementNode || ec.mode == ExcludeNone {
		return false
	}
	if ec.explicit(n) {
		return true
	}
	if ec.mode >= ExcludeStandard && ec.byPattern(n) {
		return true
	}
	return ec.mode >= ExcludeAggressive && ec.byLinkDensity(n)
}

func (ec *exclusionChecker) explicit(n *html.Node) bool {
	switch n.Data {
	case "nav", "aside":
		return true
	case "header", "footer":
		return ec.topLevel(n)
	}
	switch getAttr(n, "role") {
	case "navigation", "complementary":
		return true
	case "banner", "contentinfo":
		return ec.topLevel(n)
	}
	return false
}

func (ec *exclusionChecker) topLevel(n *html.Node) bool {
	p := n.Parent
	return p != nil && (p == ec.body || (ec.wrapper != nil && p == ec.wrapper))
}

func (ec *exclusionChecker) byPattern(n *html.Node) bool {
	if c := getAttr(n, "class"); c != "" && chromePattern.MatchString(c) {
		return true
	}
	id := getAttr(n, "id")
	return id != "" && chromePattern.MatchString(id)
}

// byLinkDensity only looks at block containers. A table is never judged by
// its own link density.
func (ec *exclusionChecker) byLinkDensity(n *html.Node) bool {
	switch n.Data {
	case "div", "section", "ul", "ol":
	default:
		return false
	}
	d, ok := ec.density[n]
	if !ok {
		if total := textLength(n); total > 0 {
			d = float64(linkTextLength(n)) / float64(total)
		}
		ec.density[n] = d
	}
	return d > maxLinkDensity && countLinks(n) >= minNavLinks
}

func textLength(n *html.Node) int {
	if n.Type == html.TextNode {
		return len(strings.TrimSpace(n.Data))
	}
	total := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		total += textLength(c)
	}
	return total
}

func linkTextLength(n *html.Node) int {
	if n.Type == html.ElementNode && n.Data == "a" {
		return textLength(n)
	}
	total := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		total += linkTextLength(c)
	}
	return total
}

func countLinks(n *html.Node) int {
	count := 0
	if n.Type == html.ElementNode && n.Data == "a" {
		count = 1
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count += countLinks(c)
	}
	return count
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
