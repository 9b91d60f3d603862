package webpage

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// noiseSelector lists elements that never carry readable text.
const noiseSelector = "script, style, img, input"

// Parse reduces an HTML document to a Page. It never fails on missing
// elements: an absent title yields NoTitle and an absent body yields "".
func Parse(pageURL string, r io.Reader) (*Page, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return parseHTML(pageURL, data)
}

func parseHTML(pageURL string, data []byte) (*Page, error) {
	// Scripting disabled so <noscript> children are parsed as elements
	// instead of a single raw text blob.
	root, err := html.ParseWithOptions(bytes.NewReader(data), html.ParseOptionEnableScripting(false))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	page := &Page{
		URL:   pageURL,
		Title: extractTitle(doc),
	}

	// The parser always synthesises a <body>; only documents that actually
	// declare one contribute body text.
	if hasBodyElement(data) {
		body := doc.Find("body").First()
		body.Find(noiseSelector).Remove()
		page.Text = extractText(body)
	}

	page.Links = extractLinks(doc)
	return page, nil
}

func extractTitle(doc *goquery.Document) string {
	title := doc.Find("title").First()
	if title.Length() == 0 {
		return NoTitle
	}
	text := strings.TrimSpace(title.Text())
	if text == "" {
		return NoTitle
	}
	return text
}

// extractText joins every non-blank text node under sel, one per line.
func extractText(sel *goquery.Selection) string {
	var parts []string
	collectText(sel, &parts)
	return strings.Join(parts, "\n")
}

func collectText(sel *goquery.Selection, parts *[]string) {
	sel.Contents().Each(func(i int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "#text":
			text := strings.TrimSpace(s.Text())
			if text != "" {
				*parts = append(*parts, text)
			}
		case "#comment":
		default:
			collectText(s, parts)
		}
	})
}

func extractLinks(doc *goquery.Document) []string {
	links := []string{}
	doc.Find("a").Each(func(i int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href != "" {
			links = append(links, href)
		}
	})
	return links
}

// hasBodyElement reports whether the raw markup contains a <body> start tag.
func hasBodyElement(data []byte) bool {
	z := html.NewTokenizer(bytes.NewReader(data))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "body" {
				return true
			}
		}
	}
}

// normalizeLines trims every line of text and drops blank ones.
func normalizeLines(text string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
