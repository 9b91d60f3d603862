// Package webpage fetches a single web page and reduces it to plain text and
// the raw list of outbound links.
package webpage

import (
	"fmt"
)

// NoTitle is used when a document has no usable <title>.
const NoTitle = "No title found"

// Page is the cleaned representation of one fetched document.
type Page struct {
	URL   string
	Title string
	Text  string
	// Links holds href values in document order. Relative values are kept as
	// written and duplicates are preserved.
	Links []string
}

// Contents renders the page the way it is embedded into prompts.
func (p *Page) Contents() string {
	return fmt.Sprintf("Webpage Title:\n%s\nWebpage Contents:\n%s\n\n", p.Title, p.Text)
}

// FetchError reports that the HTTP transport could not complete a request.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
