package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p, err := NewOpenAIProvider("sk-test", srv.URL, 0, zerolog.Nop())
	require.NoError(t, err)
	return p
}

func decodeBody(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider("  ", "", 0, zerolog.Nop())
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, BackendOpenAI, cfgErr.Backend)
}

func TestOpenAI_InvokeForwardsJSONOutput(t *testing.T) {
	var body map[string]interface{}
	var auth string
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		auth = r.Header.Get("Authorization")
		body = decodeBody(t, r)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{\"links\":[]}"}}]}`)
	})

	got, err := p.Invoke(context.Background(), Request{
		Backend:    BackendOpenAI,
		Model:      "gpt-4o-mini",
		Messages:   []Message{SystemMessage("sys"), UserMessage("usr")},
		JSONOutput: true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"links":[]}`, got)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.Equal(t, map[string]interface{}{"type": "json_object"}, body["response_format"])

	messages := body["messages"].([]interface{})
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
	assert.Equal(t, "sys", messages[0].(map[string]interface{})["content"])
	assert.Equal(t, "user", messages[1].(map[string]interface{})["role"])
}

func TestOpenAI_InvokeWithoutJSONOutput(t *testing.T) {
	var body map[string]interface{}
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		body = decodeBody(t, r)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"# Summary"}}]}`)
	})

	got, err := p.Invoke(context.Background(), Request{Backend: BackendOpenAI, Model: "m", Messages: []Message{UserMessage("u")}})
	require.NoError(t, err)
	assert.Equal(t, "# Summary", got)
	_, present := body["response_format"]
	assert.False(t, present)
}

func TestOpenAI_InvokeNoChoices(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	})

	_, err := p.Invoke(context.Background(), Request{Backend: BackendOpenAI, Model: "m"})
	var svcErr *ServiceError
	assert.True(t, errors.As(err, &svcErr))
}

func TestOpenAI_InvokeAPIErrorIsNotRetried(t *testing.T) {
	calls := 0
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"upstream exploded","type":"server_error"}}`)
	})

	_, err := p.Invoke(context.Background(), Request{Backend: BackendOpenAI, Model: "m"})
	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, http.StatusInternalServerError, svcErr.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestOpenAI_InvokeNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := srv.URL
	srv.Close()

	p, err := NewOpenAIProvider("sk-test", target, 0, zerolog.Nop())
	require.NoError(t, err)
	_, err = p.Invoke(context.Background(), Request{Backend: BackendOpenAI, Model: "m"})
	var netErr *NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestOpenAI_StreamMatchesInvoke(t *testing.T) {
	fragments := []string{"# Acme", "\n\nRockets", " for everyone."}
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, true, body["stream"])
		w.Header().Set("Content-Type", "text/event-stream")
		// role-only chunk carries no content and must be skipped
		fmt.Fprint(w, `data: {"id":"c1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"role":"assistant"}}]}`+"\n\n")
		for _, f := range fragments {
			chunk, _ := json.Marshal(map[string]interface{}{
				"id": "c1", "object": "chat.completion.chunk", "created": 1, "model": "m",
				"choices": []interface{}{map[string]interface{}{"index": 0, "delta": map[string]string{"content": f}}},
			})
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	s, err := p.Stream(context.Background(), Request{Backend: BackendOpenAI, Model: "m"})
	require.NoError(t, err)

	var got []string
	for s.Next() {
		got = append(got, s.Current())
	}
	require.NoError(t, s.Err())
	require.NoError(t, s.Close())
	assert.Equal(t, fragments, got)
}

func TestOpenAI_StreamStartError(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	})

	_, err := p.Stream(context.Background(), Request{Backend: BackendOpenAI, Model: "m"})
	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, http.StatusUnauthorized, svcErr.StatusCode)
}
