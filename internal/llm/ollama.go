package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/rs/zerolog"
)

// OllamaProvider implements Provider for a local Ollama service.
type OllamaProvider struct {
	client *api.Client
	log    zerolog.Logger
}

// NewOllamaProvider creates the local backend. baseURL is the service root,
// e.g. http://localhost:11434.
func NewOllamaProvider(baseURL string, timeout time.Duration, log zerolog.Logger) (*OllamaProvider, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, &ConfigurationError{Backend: BackendOllama, Setting: "OLLAMA_HOST"}
	}

	return &OllamaProvider{
		client: api.NewClient(base, &http.Client{Timeout: timeout}),
		log:    log.With().Str("component", "llm").Str("backend", string(BackendOllama)).Logger(),
	}, nil
}

// chatRequest never sets Format: structured output is not forwarded to this
// backend.
func (p *OllamaProvider) chatRequest(req Request, stream bool) *api.ChatRequest {
	if req.JSONOutput {
		p.log.Debug().Msg("Structured output not supported by this backend, dropping flag")
	}

	messages := make([]api.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, api.Message{Role: string(m.Role), Content: m.Content})
	}
	return &api.ChatRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   &stream,
	}
}

// Invoke returns the message content of a non-streaming chat call.
func (p *OllamaProvider) Invoke(ctx context.Context, req Request) (string, error) {
	var content strings.Builder
	err := p.client.Chat(ctx, p.chatRequest(req, false), func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", wrapOllamaError(err)
	}
	return content.String(), nil
}

// Stream runs the chat call in the background and hands its content chunks
// out one at a time. A call that fails before producing any content is
// reported here rather than from Next.
func (p *OllamaProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := &ollamaStream{
		chunks: make(chan string),
		cancel: cancel,
	}

	chatReq := p.chatRequest(req, true)
	go func() {
		err := p.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
			if resp.Message.Content == "" {
				return nil
			}
			select {
			case s.chunks <- resp.Message.Content:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		// read by the consumer only after the channel is closed
		s.chatErr = err
		close(s.chunks)
	}()

	first, ok := <-s.chunks
	if !ok {
		if s.chatErr != nil {
			cancel()
			return nil, wrapOllamaError(s.chatErr)
		}
		return s, nil
	}
	s.pending = first
	s.hasPending = true
	return s, nil
}

type ollamaStream struct {
	chunks     chan string
	cancel     context.CancelFunc
	chatErr    error
	pending    string
	hasPending bool
	current    string
	err        error
	closed     bool
}

func (s *ollamaStream) Next() bool {
	if s.hasPending {
		s.current, s.pending, s.hasPending = s.pending, "", false
		return true
	}
	if s.closed {
		s.current = ""
		return false
	}
	chunk, ok := <-s.chunks
	if !ok {
		if s.chatErr != nil && s.err == nil {
			s.err = wrapOllamaError(s.chatErr)
		}
		s.current = ""
		return false
	}
	s.current = chunk
	return true
}

func (s *ollamaStream) Current() string { return s.current }

func (s *ollamaStream) Err() error { return s.err }

// Close stops the call and waits for it to finish.
func (s *ollamaStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()
	for range s.chunks {
	}
	return nil
}

// wrapOllamaError maps client failures onto the gateway error taxonomy.
func wrapOllamaError(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		msg := statusErr.ErrorMessage
		if msg == "" {
			msg = statusErr.Status
		}
		return &ServiceError{Backend: BackendOllama, StatusCode: statusErr.StatusCode, Message: msg}
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &NetworkError{Backend: BackendOllama, Err: err}
	}
	return &ServiceError{Backend: BackendOllama, Message: fmt.Sprint(err)}
}
