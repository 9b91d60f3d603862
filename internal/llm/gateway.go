package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"sitebrief/internal/config"
)

// Gateway dispatches requests to the provider registered for
// Request.Backend. It implements Provider itself.
type Gateway struct {
	providers map[Backend]Provider
	log       zerolog.Logger
}

// NewGateway creates an empty gateway.
func NewGateway(log zerolog.Logger) *Gateway {
	return &Gateway{
		providers: make(map[Backend]Provider),
		log:       log.With().Str("component", "llm").Logger(),
	}
}

// Register installs p as the provider for b, replacing any previous one.
func (g *Gateway) Register(b Backend, p Provider) {
	g.providers[b] = p
}

// Provider returns the provider registered for b.
func (g *Gateway) Provider(b Backend) (Provider, error) {
	p, ok := g.providers[b]
	if !ok {
		return nil, &UnsupportedBackendError{Backend: string(b)}
	}
	return p, nil
}

// Invoke sends req to its backend and waits for the complete response.
func (g *Gateway) Invoke(ctx context.Context, req Request) (string, error) {
	p, err := g.Provider(req.Backend)
	if err != nil {
		return "", err
	}

	start := time.Now()
	text, err := p.Invoke(ctx, req)
	if err != nil {
		g.log.Error().Err(err).Str("backend", string(req.Backend)).Str("model", req.Model).Msg("Model call failed")
		return "", err
	}
	g.log.Debug().
		Str("backend", string(req.Backend)).
		Str("model", req.Model).
		Bool("json_output", req.JSONOutput).
		Dur("elapsed", time.Since(start)).
		Int("response_chars", len(text)).
		Msg("Model call completed")
	return text, nil
}

// Stream sends req to its backend and returns the fragment stream.
func (g *Gateway) Stream(ctx context.Context, req Request) (Stream, error) {
	p, err := g.Provider(req.Backend)
	if err != nil {
		return nil, err
	}

	s, err := p.Stream(ctx, req)
	if err != nil {
		g.log.Error().Err(err).Str("backend", string(req.Backend)).Str("model", req.Model).Msg("Model stream failed to start")
		return nil, err
	}
	g.log.Debug().Str("backend", string(req.Backend)).Str("model", req.Model).Msg("Model stream started")
	return s, nil
}

// Setup builds a gateway holding only the provider for the selected backend.
// It fails with a ConfigurationError when that backend lacks credentials.
func Setup(cfg *config.Config, backend Backend, log zerolog.Logger) (*Gateway, error) {
	g := NewGateway(log)

	switch backend {
	case BackendOpenAI:
		p, err := NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.LLM.Timeout, log)
		if err != nil {
			return nil, err
		}
		g.Register(BackendOpenAI, p)
	case BackendOllama:
		p, err := NewOllamaProvider(cfg.Ollama.URL, cfg.LLM.Timeout, log)
		if err != nil {
			return nil, err
		}
		g.Register(BackendOllama, p)
	default:
		return nil, &UnsupportedBackendError{Backend: string(backend)}
	}

	return g, nil
}

// ModelFor returns the configured model name for backend.
func ModelFor(cfg *config.Config, backend Backend) string {
	if backend == BackendOpenAI {
		return cfg.OpenAI.Model
	}
	return cfg.Ollama.Model
}
