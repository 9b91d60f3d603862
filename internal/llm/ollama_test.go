package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOllama(t *testing.T, handler http.HandlerFunc) *OllamaProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p, err := NewOllamaProvider(srv.URL+"/", 0, zerolog.Nop())
	require.NoError(t, err)
	return p
}

func TestNewOllamaProvider_RejectsBadURL(t *testing.T) {
	_, err := NewOllamaProvider("://nowhere", 0, zerolog.Nop())
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "OLLAMA_HOST", cfgErr.Setting)
}

func TestOllama_InvokeDropsJSONOutput(t *testing.T) {
	var body map[string]interface{}
	p := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		fmt.Fprint(w, `{"model":"llama3.2","message":{"role":"assistant","content":"{\"links\":[]}"},"done":true}`)
	})

	got, err := p.Invoke(context.Background(), Request{
		Backend:    BackendOllama,
		Model:      "llama3.2",
		Messages:   []Message{SystemMessage("sys"), UserMessage("usr")},
		JSONOutput: true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"links":[]}`, got)

	assert.Equal(t, "llama3.2", body["model"])
	assert.Equal(t, false, body["stream"])
	assert.NotContains(t, body, "format")
	assert.NotContains(t, body, "response_format")

	messages := body["messages"].([]interface{})
	require.Len(t, messages, 2)
	first := messages[0].(map[string]interface{})
	second := messages[1].(map[string]interface{})
	assert.Equal(t, "system", first["role"])
	assert.Equal(t, "sys", first["content"])
	assert.Equal(t, "user", second["role"])
	assert.Equal(t, "usr", second["content"])
}

func TestOllama_InvokeServiceError(t *testing.T) {
	p := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"model \"llama3.2\" not found"}`)
	})

	_, err := p.Invoke(context.Background(), Request{Backend: BackendOllama, Model: "llama3.2"})
	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Contains(t, svcErr.Message, "not found")
}

func TestOllama_InvokeServiceErrorWithoutJSON(t *testing.T) {
	p := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := p.Invoke(context.Background(), Request{Backend: BackendOllama, Model: "llama3.2"})
	var svcErr *ServiceError
	assert.True(t, errors.As(err, &svcErr))
}

func TestOllama_InvokeNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := srv.URL
	srv.Close()

	p, err := NewOllamaProvider(target, 0, zerolog.Nop())
	require.NoError(t, err)

	_, err = p.Invoke(context.Background(), Request{Backend: BackendOllama})
	var netErr *NetworkError
	assert.True(t, errors.As(err, &netErr))

	// a stream that cannot connect fails to start
	_, err = p.Stream(context.Background(), Request{Backend: BackendOllama})
	assert.True(t, errors.As(err, &netErr))
}

func TestOllama_StreamEqualsInvoke(t *testing.T) {
	fragments := []string{"## Acme", "\n", "We build rockets."}
	p := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		var body api.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Stream == nil || !*body.Stream {
			fmt.Fprint(w, `{"message":{"role":"assistant","content":"## Acme\nWe build rockets."},"done":true}`)
			return
		}
		for _, f := range fragments {
			line, _ := json.Marshal(map[string]interface{}{"message": map[string]string{"role": "assistant", "content": f}, "done": false})
			fmt.Fprintf(w, "%s\n", line)
		}
		fmt.Fprint(w, `{"message":{"role":"assistant","content":""},"done":true}`+"\n")
	})

	req := Request{Backend: BackendOllama, Model: "llama3.2", Messages: []Message{UserMessage("u")}}
	s, err := p.Stream(context.Background(), req)
	require.NoError(t, err)

	var got []string
	for s.Next() {
		got = append(got, s.Current())
	}
	require.NoError(t, s.Err())
	require.NoError(t, s.Close())
	assert.Equal(t, fragments, got)

	full, err := p.Invoke(context.Background(), req)
	require.NoError(t, err)
	s, err = p.Stream(context.Background(), req)
	require.NoError(t, err)
	collected, err := Collect(s)
	require.NoError(t, err)
	assert.Equal(t, full, collected)
}

func TestOllama_StreamMidwayError(t *testing.T) {
	p := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":{"content":"partial"},"done":false}`+"\n")
		fmt.Fprint(w, `{"error":"out of memory"}`+"\n")
	})

	s, err := p.Stream(context.Background(), Request{Backend: BackendOllama, Model: "llama3.2"})
	require.NoError(t, err)
	text, err := Collect(s)
	assert.Equal(t, "partial", text)
	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "out of memory", svcErr.Message)
}

func TestOllama_StreamCloseStopsCall(t *testing.T) {
	release := make(chan struct{})
	p := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":{"content":"first"},"done":false}`+"\n")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	defer close(release)

	s, err := p.Stream(context.Background(), Request{Backend: BackendOllama, Model: "llama3.2"})
	require.NoError(t, err)
	require.True(t, s.Next())
	assert.Equal(t, "first", s.Current())

	require.NoError(t, s.Close())
	assert.False(t, s.Next())
	assert.NoError(t, s.Err())
}
