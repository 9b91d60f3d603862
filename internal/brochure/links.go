package brochure

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
)

// Link is one page chosen by the model, tagged with its kind
// (e.g. "about page").
type Link struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// LinkSelection is the structured answer of the link-selection call.
type LinkSelection struct {
	Links []Link `json:"links"`
}

// Entries missing type or url are tolerated here and dropped by Resolve.
var linkSelectionSchema = mustSchema(`{
	"type": "object",
	"required": ["links"],
	"properties": {
		"links": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"type": {"type": "string"},
					"url": {"type": "string"}
				}
			}
		}
	}
}`)

func mustSchema(raw string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid link selection schema: %v", err))
	}
	return schema
}

// SchemaError reports a JSON answer that does not have the expected shape.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "link selection has unexpected shape: " + strings.Join(e.Problems, "; ")
}

// ParseLinkSelection decodes the model answer. A surrounding code fence is
// tolerated; anything that is not JSON is an error.
func ParseLinkSelection(raw string) (*LinkSelection, error) {
	doc := stripCodeFence(raw)

	result, err := linkSelectionSchema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("link selection is not valid JSON: %w", err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return nil, &SchemaError{Problems: problems}
	}

	var sel LinkSelection
	if err := json.Unmarshal([]byte(doc), &sel); err != nil {
		return nil, fmt.Errorf("link selection is not valid JSON: %w", err)
	}
	return &sel, nil
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// Resolve makes every URL absolute against base and drops entries that can
// not be fetched: blank type or url, unparsable, or not http(s).
func (s *LinkSelection) Resolve(base string, log zerolog.Logger) (*LinkSelection, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", base, err)
	}

	out := &LinkSelection{Links: make([]Link, 0, len(s.Links))}
	for _, link := range s.Links {
		linkType := strings.TrimSpace(link.Type)
		raw := strings.TrimSpace(link.URL)
		if linkType == "" || raw == "" {
			log.Warn().Str("type", link.Type).Str("url", link.URL).Msg("Dropping incomplete link")
			continue
		}
		ref, err := url.Parse(raw)
		if err != nil {
			log.Warn().Err(err).Str("url", raw).Msg("Dropping unparsable link")
			continue
		}
		abs := baseURL.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			log.Warn().Str("url", raw).Msg("Dropping non-web link")
			continue
		}
		out.Links = append(out.Links, Link{Type: linkType, URL: abs.String()})
	}
	return out, nil
}
