package webpage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
)

// Extractor selects how body text is pulled out of an HTML document.
type Extractor string

const (
	// ExtractorFull keeps every text node of the body minus noise elements.
	ExtractorFull Extractor = "full"
	// ExtractorReadability keeps only the main article as scored by readability.
	ExtractorReadability Extractor = "readability"
)

// Fetcher handles HTTP fetching and HTML parsing
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxSizeMB  int
	extractor  Extractor
	log        zerolog.Logger
}

// NewFetcher creates a page fetcher. A zero timeout means the request is
// bounded only by ctx.
func NewFetcher(timeout time.Duration, userAgent string, maxSizeMB int, extractor Extractor, log zerolog.Logger) *Fetcher {
	if extractor == "" {
		extractor = ExtractorFull
	}
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxSizeMB: maxSizeMB,
		extractor: extractor,
		log:       log.With().Str("component", "webpage").Logger(),
	}
}

// Fetch issues one GET for pageURL and returns the cleaned page. Only
// transport failures are errors; non-2xx responses are parsed like any other.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	data, contentType, err := f.fetchBody(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var page *Page
	switch {
	case strings.Contains(contentType, "application/pdf"):
		page, err = f.parsePDF(pageURL, data)
	case f.extractor == ExtractorReadability:
		page, err = f.parseReadability(pageURL, data)
	default:
		page, err = parseHTML(pageURL, data)
	}
	if err != nil {
		return nil, err
	}

	f.log.Debug().
		Str("url", pageURL).
		Str("title", page.Title).
		Int("text_chars", len(page.Text)).
		Int("links", len(page.Links)).
		Msg("Page fetched")
	return page, nil
}

func (f *Fetcher) fetchBody(ctx context.Context, pageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", &FetchError{URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", &FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.log.Warn().Str("url", pageURL).Int("status", resp.StatusCode).Msg("Non-success status, parsing body anyway")
	}

	maxBytes := int64(f.maxSizeMB) * 1024 * 1024
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, "", &FetchError{URL: pageURL, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	if int64(len(body)) > maxBytes {
		f.log.Warn().Str("url", pageURL).Int("limit_mb", f.maxSizeMB).Msg("Body exceeds size limit, truncating")
		body = body[:maxBytes]
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// parseReadability uses the readability article as body text. Title and
// links still come from the full document, and a document without a body
// keeps empty text as with the full extractor.
func (f *Fetcher) parseReadability(pageURL string, data []byte) (*Page, error) {
	page, err := parseHTML(pageURL, data)
	if err != nil {
		return nil, err
	}
	if !hasBodyElement(data) {
		return page, nil
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}
	article, err := readability.FromReader(bytes.NewReader(data), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("readability extraction failed: %w", err)
	}

	page.Text = normalizeLines(article.TextContent)
	if page.Title == NoTitle && strings.TrimSpace(article.Title) != "" {
		page.Title = strings.TrimSpace(article.Title)
	}
	return page, nil
}

func (f *Fetcher) parsePDF(pageURL string, data []byte) (*Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			f.log.Warn().Err(err).Int("page", i).Str("url", pageURL).Msg("Failed to extract PDF page text")
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}

	path := pageURL
	if u, err := url.Parse(pageURL); err == nil && u.Path != "" {
		path = u.Path
	}
	return &Page{
		URL:   pageURL,
		Title: "PDF Document: " + path,
		Text:  normalizeLines(text.String()),
		Links: []string{},
	}, nil
}
