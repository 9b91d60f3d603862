// Package urlcheck validates user-supplied URLs before anything is fetched.
package urlcheck

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// DefaultProbeTimeout bounds a reachability probe.
const DefaultProbeTimeout = 5 * time.Second

// validURL accepts an optional scheme, an optional "www.", dot-separated
// labels ending in a 2+ letter label, and an optional path.
var validURL = regexp.MustCompile(`^(https?://)?(www\.)?[a-zA-Z-]+(\.[a-zA-Z]{2,})+(/.*)?$`)

// IsValid reports whether raw looks like a web address. No normalization is
// applied before matching.
func IsValid(raw string) bool {
	return validURL.MatchString(raw)
}

// Normalize prepends https:// when raw carries no http(s) scheme.
func Normalize(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}

// ProbeResult is the outcome of a reachability probe. Failures are carried in
// Err instead of being returned, so callers can re-prompt.
type ProbeResult struct {
	URL        string
	StatusCode int
	Err        error
}

// Reachable is true only for an HTTP 200 answer.
func (r ProbeResult) Reachable() bool {
	return r.Err == nil && r.StatusCode == http.StatusOK
}

// Reason describes why the probe did not succeed.
func (r ProbeResult) Reason() string {
	switch {
	case r.Err != nil:
		return r.Err.Error()
	case r.StatusCode != http.StatusOK:
		return fmt.Sprintf("HTTP %d", r.StatusCode)
	default:
		return ""
	}
}

// Prober issues reachability probes with a fixed timeout.
type Prober struct {
	client    *http.Client
	userAgent string
}

// NewProber creates a prober. Redirects are followed by the default policy.
func NewProber(timeout time.Duration, userAgent string) *Prober {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Prober{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Probe normalizes raw and sends a single GET to it.
func (p *Prober) Probe(ctx context.Context, raw string) ProbeResult {
	target := Normalize(raw)
	result := ProbeResult{URL: target}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		result.Err = err
		return result
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		result.Err = err
		return result
	}
	resp.Body.Close()

	result.StatusCode = resp.StatusCode
	return result
}

// IsReachable probes raw with the default timeout and no custom agent.
func IsReachable(ctx context.Context, raw string) bool {
	return NewProber(DefaultProbeTimeout, "").Probe(ctx, raw).Reachable()
}
