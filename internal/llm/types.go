package llm

import (
	"context"
	"strings"
)

// Role tags a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one role-tagged chat message. Order matters: the system message
// precedes the user message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemMessage and UserMessage build messages in the usual two-slot prompt.
func SystemMessage(content string) Message { return Message{Role: RoleSystem, Content: content} }
func UserMessage(content string) Message   { return Message{Role: RoleUser, Content: content} }

// Backend identifies one of the text-generation services.
type Backend string

const (
	// BackendOpenAI is the hosted chat-completions API.
	BackendOpenAI Backend = "openai"
	// BackendOllama is a local Ollama inference service.
	BackendOllama Backend = "ollama"
)

// selectors maps user-facing model choices to backends.
var selectors = map[string]Backend{
	"gpt-4o-mini": BackendOpenAI,
	"openai":      BackendOpenAI,
	"llama3.2":    BackendOllama,
	"ollama":      BackendOllama,
}

// Selectors lists the names accepted by ParseBackend, in menu order.
func Selectors() []string {
	return []string{"gpt-4o-mini", "llama3.2"}
}

// ParseBackend resolves a user selection (case-insensitive).
func ParseBackend(selector string) (Backend, error) {
	b, ok := selectors[strings.ToLower(strings.TrimSpace(selector))]
	if !ok {
		return "", &UnsupportedBackendError{Backend: selector}
	}
	return b, nil
}

// Request is a normalized model call. Backend is explicit so dispatch depends
// on nothing but the request itself.
type Request struct {
	Backend  Backend
	Model    string
	Messages []Message
	// JSONOutput asks the backend to answer with a single JSON object.
	// Backends without that capability drop it.
	JSONOutput bool
}

// Provider is the capability implemented once per backend.
type Provider interface {
	// Invoke blocks until the full response text is available.
	Invoke(ctx context.Context, req Request) (string, error)
	// Stream returns the response as ordered fragments.
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Stream is a single-pass sequence of text fragments.
//
//	for s.Next() {
//		fmt.Print(s.Current())
//	}
//	if err := s.Err(); err != nil { ... }
type Stream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// Collect drains s and returns the concatenated fragments. The stream is
// closed afterwards.
func Collect(s Stream) (string, error) {
	defer s.Close()
	var b strings.Builder
	for s.Next() {
		b.WriteString(s.Current())
	}
	if err := s.Err(); err != nil {
		return b.String(), err
	}
	return b.String(), nil
}
