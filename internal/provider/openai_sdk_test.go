package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func sseServer(t *testing.T, chunks []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			fmt.Fprintf(w, "data: {\"id\":\"x\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", c)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func collect(t *testing.T, stream TextStream) string {
	t.Helper()
	defer stream.Close()
	var b strings.Builder
	for {
		text, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return b.String()
		}
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		b.WriteString(text)
	}
}

func TestStreamText_ConcatenatesDeltas(t *testing.T) {
	srv := sseServer(t, []string{"<div>", "", "hello", "</div>"})
	defer srv.Close()

	p := NewOpenAIProvider(OpenAIConfig{BaseURL: srv.URL + "/", APIKey: "k", Model: "m"})
	stream, err := p.StreamText(context.Background(), ChatRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("StreamText: %v", err)
	}
	if got := collect(t, stream); got != "<div>hello</div>" {
		t.Fatalf("stream=%q, want %q", got, "<div>hello</div>")
	}
}

func TestStreamText_UpstreamErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `[{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}]`)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(OpenAIConfig{BaseURL: srv.URL, APIKey: "k", Model: "m", MaxRetries: 2})
	_, err := p.StreamText(context.Background(), ChatRequest{Prompt: "p"})
	if err == nil {
		t.Fatal("expected error")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("calls=%d, want 1", n)
	}
	if IsTransport(err) {
		t.Fatal("upstream error should not be transport")
	}
	up, ok := Inspect(err)
	if !ok {
		t.Fatalf("Inspect failed for %v", err)
	}
	if up.HTTPStatus != http.StatusTooManyRequests {
		t.Fatalf("HTTPStatus=%d, want 429", up.HTTPStatus)
	}
}

func TestStreamText_TransportErrorRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := NewOpenAIProvider(OpenAIConfig{BaseURL: url, APIKey: "k", Model: "m", MaxRetries: 1})
	_, err := p.StreamText(context.Background(), ChatRequest{Prompt: "p"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !strings.Contains(err.Error(), "after 1 retries") {
		t.Fatalf("err=%q, want retry count", err.Error())
	}
}

func TestParseErrorBody(t *testing.T) {
	obj := `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`
	body, ok := ParseErrorBody([]byte(obj))
	if !ok || body.Error.Status != "INVALID_ARGUMENT" {
		t.Fatalf("object body=%+v ok=%v", body, ok)
	}
	arr := `[` + obj + `]`
	body, ok = ParseErrorBody([]byte(arr))
	if !ok || body.Error.Message != "API key not valid" {
		t.Fatalf("array body=%+v ok=%v", body, ok)
	}
	if _, ok := ParseErrorBody([]byte("not json")); ok {
		t.Fatal("plain text should not parse")
	}
}

func TestIsTransport_Canceled(t *testing.T) {
	if IsTransport(context.Canceled) {
		t.Fatal("cancellation is not a transport error")
	}
	if !IsTransport(errors.New("dial tcp: connection refused")) {
		t.Fatal("plain network error should be transport")
	}
}

func TestOpenAIProviderSetModel(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{Model: "gemini-3-flash-preview"})
	if p.CurrentModel() != "gemini-3-flash-preview" {
		t.Fatalf("CurrentModel=%q", p.CurrentModel())
	}
	if err := p.SetModel("gemini-2.5-pro"); err != nil {
		t.Fatalf("SetModel: %v", err)
	}
	if p.CurrentModel() != "gemini-2.5-pro" {
		t.Fatalf("CurrentModel=%q, want gemini-2.5-pro", p.CurrentModel())
	}
	if err := p.SetModel("  "); err == nil {
		t.Fatal("SetModel(empty) should fail")
	}
}

func TestOpenAIProviderName(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{})
	if p.Name() != "openai" {
		t.Fatalf("Name=%q, want openai", p.Name())
	}
}
