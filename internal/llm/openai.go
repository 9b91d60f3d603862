package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
	"github.com/openai/openai-go/v3/shared"
	"github.com/rs/zerolog"
)

// OpenAIProvider implements Provider for the hosted chat-completions API.
type OpenAIProvider struct {
	client openai.Client
	log    zerolog.Logger
}

// NewOpenAIProvider creates the hosted backend. apiKey is required; baseURL
// may point at any OpenAI-compatible endpoint.
func NewOpenAIProvider(apiKey, baseURL string, timeout time.Duration, log zerolog.Logger) (*OpenAIProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &ConfigurationError{Backend: BackendOpenAI, Setting: "OPENAI_API_KEY"}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// one attempt per call
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		log:    log.With().Str("component", "llm").Str("backend", string(BackendOpenAI)).Logger(),
	}, nil
}

func (p *OpenAIProvider) params(req Request) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			messages = append(messages, openai.SystemMessage(m.Content))
		} else {
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    req.Model,
		Messages: messages,
	}
	if req.JSONOutput {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	return params
}

// Invoke returns the text of the first completion choice.
func (p *OpenAIProvider) Invoke(ctx context.Context, req Request) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, p.params(req))
	if err != nil {
		return "", wrapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &ServiceError{Backend: BackendOpenAI, Message: "no completion choices returned"}
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream returns the content deltas of the first choice.
func (p *OpenAIProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	stream := p.client.Chat.Completions.NewStreaming(ctx, p.params(req))
	if stream == nil {
		return nil, &ServiceError{Backend: BackendOpenAI, Message: "chat completions streaming not available"}
	}
	// Request failures surface from the first Next call; check them up front
	// so callers see them as a start error.
	if err := stream.Err(); err != nil {
		stream.Close()
		return nil, wrapOpenAIError(err)
	}
	return &openAIStream{stream: stream}, nil
}

type openAIStream struct {
	stream  *ssestream.Stream[openai.ChatCompletionChunk]
	current string
}

func (s *openAIStream) Next() bool {
	for s.stream.Next() {
		chunk := s.stream.Current()
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		s.current = chunk.Choices[0].Delta.Content
		return true
	}
	s.current = ""
	return false
}

func (s *openAIStream) Current() string { return s.current }

func (s *openAIStream) Err() error {
	if err := s.stream.Err(); err != nil {
		return wrapOpenAIError(err)
	}
	return nil
}

func (s *openAIStream) Close() error { return s.stream.Close() }

// wrapOpenAIError maps SDK failures onto the gateway error taxonomy.
func wrapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &ServiceError{Backend: BackendOpenAI, StatusCode: apiErr.StatusCode, Message: apiErr.Message}
	}
	return &NetworkError{Backend: BackendOpenAI, Err: err}
}
