package brochure

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"sitebrief/internal/display"
	"sitebrief/internal/llm"
	"sitebrief/internal/webpage"
)

// Mode selects what the tool produces for a site.
type Mode string

const (
	ModeSummary  Mode = "1"
	ModeBrochure Mode = "2"
)

// ParseMode accepts the menu choice "1" or "2".
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.TrimSpace(s)); m {
	case ModeSummary, ModeBrochure:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q, expected 1 (summary) or 2 (brochure)", s)
}

func (m Mode) String() string {
	if m == ModeBrochure {
		return "brochure"
	}
	return "summary"
}

// PageFetcher fetches and parses one page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*webpage.Page, error)
}

// Invoker runs a single non-streaming model call.
type Invoker interface {
	Invoke(ctx context.Context, req llm.Request) (string, error)
}

// Prepared is the final model request for a run, ready to be invoked or
// streamed.
type Prepared struct {
	Mode      Mode
	Landing   *webpage.Page
	Selection *LinkSelection
	Request   llm.Request
}

// Generator drives the summary and brochure flows up to the final model call.
type Generator struct {
	fetcher PageFetcher
	model   Invoker
	backend llm.Backend
	name    string
	status  io.Writer
	log     zerolog.Logger
}

func NewGenerator(fetcher PageFetcher, model Invoker, backend llm.Backend, modelName string, log zerolog.Logger) *Generator {
	return &Generator{
		fetcher: fetcher,
		model:   model,
		backend: backend,
		name:    modelName,
		log:     log.With().Str("component", "brochure").Logger(),
	}
}

// SetStatus makes the generator print progress lines for the user to w.
func (g *Generator) SetStatus(w io.Writer) {
	g.status = w
}

func (g *Generator) report(msg string) {
	if g.status != nil {
		fmt.Fprintln(g.status, display.FormatInfo(msg))
	}
}

// Prepare fetches the landing page and builds the final request for mode.
// In brochure mode this includes the link-selection call and fetching every
// selected page.
func (g *Generator) Prepare(ctx context.Context, mode Mode, landingURL string) (*Prepared, error) {
	g.log.Info().Str("url", landingURL).Str("mode", mode.String()).Msg("Fetching landing page")
	landing, err := g.fetcher.Fetch(ctx, landingURL)
	if err != nil {
		return nil, err
	}

	if mode == ModeSummary {
		return &Prepared{
			Mode:    mode,
			Landing: landing,
			Request: SummaryRequest(g.backend, g.name, landing),
		}, nil
	}

	g.report("Obtaining relevant links...")
	selection, err := g.SelectLinks(ctx, landing)
	if err != nil {
		return nil, err
	}

	g.report("Gathering information from relevant links...")
	details, err := GatherDetails(ctx, g.fetcher, landing, selection)
	if err != nil {
		return nil, err
	}

	return &Prepared{
		Mode:      mode,
		Landing:   landing,
		Selection: selection,
		Request:   BrochureRequest(g.backend, g.name, landing, details),
	}, nil
}

// SelectLinks asks the model which landing-page links belong in a brochure
// and returns them as absolute URLs.
func (g *Generator) SelectLinks(ctx context.Context, landing *webpage.Page) (*LinkSelection, error) {
	g.log.Info().Int("links", len(landing.Links)).Msg("Obtaining relevant links")
	raw, err := g.model.Invoke(ctx, LinkRequest(g.backend, g.name, landing))
	if err != nil {
		return nil, fmt.Errorf("link selection failed: %w", err)
	}

	parsed, err := ParseLinkSelection(raw)
	if err != nil {
		g.log.Debug().Str("response", raw).Msg("Unusable link selection response")
		return nil, err
	}

	selection, err := parsed.Resolve(landing.URL, g.log)
	if err != nil {
		return nil, err
	}
	for _, link := range selection.Links {
		g.log.Info().Str("type", link.Type).Str("url", link.URL).Msg("Selected link")
	}
	return selection, nil
}

// GatherDetails concatenates the landing page with every selected page, in
// selection order. The landing page is not fetched again and repeated links
// are fetched each time.
func GatherDetails(ctx context.Context, fetcher PageFetcher, landing *webpage.Page, selection *LinkSelection) (string, error) {
	var b strings.Builder
	b.WriteString("Landing page:\n")
	b.WriteString(landing.Contents())

	for _, link := range selection.Links {
		page, err := fetcher.Fetch(ctx, link.URL)
		if err != nil {
			return "", fmt.Errorf("failed to fetch %s: %w", link.Type, err)
		}
		b.WriteString("\n\n")
		b.WriteString(link.Type)
		b.WriteString("\n")
		b.WriteString(page.Contents())
	}
	return b.String(), nil
}
