package kernel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"genos/internal/history"
	"genos/internal/interaction"
	"genos/internal/prefs"
	"genos/internal/provider"
)

type staticKey string

func (k staticKey) APIKey() string { return string(k) }

func newTestClient(url string, keys KeySource) *Client {
	return New(Config{
		Model: "gemini-3-flash-preview",
		Keys:  keys,
		NewProvider: func(apiKey string) provider.Provider {
			return provider.NewOpenAIProvider(provider.OpenAIConfig{BaseURL: url, APIKey: apiKey})
		},
	})
}

func sampleRequest() Request {
	h := history.Append(nil, interaction.Event{ID: "open_doc", Type: "file_open", ElementLabel: "Report", AppContext: "documents"}, 3)
	return Request{History: h, MaxHistory: 3, Cache: prefs.DefaultCacheConfig()}
}

func drain(t *testing.T, s *Stream) []string {
	t.Helper()
	var out []string
	for frag := range s.Fragments() {
		out = append(out, frag)
	}
	return out
}

func writeChunk(w http.ResponseWriter, text string) {
	fmt.Fprintf(w, "data: {\"id\":\"x\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", text)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func errorServer(status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
}

func TestStream_MissingKey(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1", staticKey(""))
	s, err := c.Stream(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	frags := drain(t, s)
	if len(frags) != 1 || !strings.Contains(frags[0], "Kernel Key Missing") {
		t.Fatalf("fragments=%q", frags)
	}
	if !strings.Contains(frags[0], `data-interaction-id="change_api_key"`) {
		t.Fatal("missing-key fragment should offer change_api_key")
	}
	if s.Kind() != KindMissingKey {
		t.Fatalf("Kind=%v, want missing_key", s.Kind())
	}
}

func TestStream_EmptyHistory(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1", staticKey("k"))
	s, err := c.Stream(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	frags := drain(t, s)
	if len(frags) != 1 || !strings.Contains(frags[0], "No interaction context found.") {
		t.Fatalf("fragments=%q", frags)
	}
}

func TestStream_FragmentsInOrderWithCurrentKey(t *testing.T) {
	var mu sync.Mutex
	var auths []string
	var lastPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		auths = append(auths, r.Header.Get("Authorization"))
		if len(body.Messages) == 1 && body.Messages[0].Role == "user" {
			lastPrompt = body.Messages[0].Content
		}
		mu.Unlock()

		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range []string{"<div>", "", "Q3 ", "Report</div>"} {
			writeChunk(w, c)
		}
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	key := &mutableKey{key: "first"}
	c := newTestClient(srv.URL, key)

	s, err := c.Stream(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	frags := drain(t, s)
	if got := strings.Join(frags, "|"); got != "<div>|Q3 |Report</div>" {
		t.Fatalf("fragments=%q", got)
	}
	if s.Kind() != KindOK {
		t.Fatalf("Kind=%v, want ok", s.Kind())
	}
	if s.PromptTokens() <= 0 {
		t.Fatal("prompt tokens should be estimated")
	}
	if !strings.HasSuffix(lastPrompt, "GENERATE WINDOW HTML:") {
		t.Fatalf("prompt suffix wrong: %q", lastPrompt[max(0, len(lastPrompt)-40):])
	}

	key.set("second")
	s, err = c.Stream(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	drain(t, s)

	mu.Lock()
	defer mu.Unlock()
	if len(auths) != 2 || auths[0] != "Bearer first" || auths[1] != "Bearer second" {
		t.Fatalf("auths=%q, want fresh key per call", auths)
	}
}

type mutableKey struct {
	mu  sync.Mutex
	key string
}

func (k *mutableKey) APIKey() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.key
}

func (k *mutableKey) set(v string) {
	k.mu.Lock()
	k.key = v
	k.mu.Unlock()
}

func TestStream_QuotaErrorWithRetryDelay(t *testing.T) {
	srv := errorServer(http.StatusTooManyRequests, `[{"error":{"code":429,"message":"You exceeded your current quota.","status":"RESOURCE_EXHAUSTED","details":[{"@type":"type.googleapis.com/google.rpc.RetryInfo","retryDelay":"37s"}]}}]`)
	defer srv.Close()

	s, err := newTestClient(srv.URL, staticKey("k")).Stream(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	frags := drain(t, s)
	if len(frags) != 1 {
		t.Fatalf("fragments=%d, want 1", len(frags))
	}
	if !strings.Contains(frags[0], "Quota Exhausted") || !strings.Contains(frags[0], "Switch to Paid API Key") {
		t.Fatalf("fragment=%q", frags[0])
	}
	if !strings.Contains(frags[0], "approximately 37 seconds") {
		t.Fatalf("fragment should carry retry hint: %q", frags[0])
	}
	if s.Kind() != KindQuotaError {
		t.Fatalf("Kind=%v, want quota_error", s.Kind())
	}
}

func TestStream_QuotaErrorWithoutHint(t *testing.T) {
	srv := errorServer(http.StatusTooManyRequests, `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`)
	defer srv.Close()

	s, _ := newTestClient(srv.URL, staticKey("k")).Stream(context.Background(), sampleRequest())
	frags := drain(t, s)
	if strings.Contains(frags[0], "approximately") {
		t.Fatalf("no hint expected: %q", frags[0])
	}
}

func TestStream_KeyErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"entity", http.StatusNotFound, `{"error":{"code":404,"message":"Requested entity was not found.","status":"NOT_FOUND"}}`},
		{"invalid", http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"code":401,"message":"unauthenticated","status":"UNAUTHENTICATED"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := errorServer(tt.status, tt.body)
			defer srv.Close()
			s, err := newTestClient(srv.URL, staticKey("k")).Stream(context.Background(), sampleRequest())
			if err != nil {
				t.Fatalf("Stream: %v", err)
			}
			frags := drain(t, s)
			if !strings.Contains(frags[0], "Uplink Refused") || !strings.Contains(frags[0], "Re-select API Key") {
				t.Fatalf("fragment=%q", frags[0])
			}
			if s.Kind() != KindKeyError {
				t.Fatalf("Kind=%v, want key_error", s.Kind())
			}
		})
	}
}

func TestStream_GenericErrorEscapesMessage(t *testing.T) {
	srv := errorServer(http.StatusInternalServerError, `{"error":{"code":500,"message":"<boom> & bust","status":"INTERNAL"}}`)
	defer srv.Close()

	s, _ := newTestClient(srv.URL, staticKey("k")).Stream(context.Background(), sampleRequest())
	frags := drain(t, s)
	if !strings.Contains(frags[0], "Kernel Panic") {
		t.Fatalf("fragment=%q", frags[0])
	}
	if !strings.Contains(frags[0], "&lt;boom&gt; &amp; bust") {
		t.Fatalf("message should be escaped: %q", frags[0])
	}
	for _, id := range []string{"app_close_button", "change_api_key"} {
		if !strings.Contains(frags[0], `data-interaction-id="`+id+`"`) {
			t.Fatalf("fragment missing %s button", id)
		}
	}
	if s.Kind() != KindKernelError {
		t.Fatalf("Kind=%v, want kernel_error", s.Kind())
	}
}

func TestStream_MidStreamErrorAppended(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeChunk(w, "<div>partial")
		io.WriteString(w, "data: {\"error\":{\"message\":\"Resource has been exhausted (e.g. check quota).\",\"code\":429}}\n\n")
	}))
	defer srv.Close()

	s, err := newTestClient(srv.URL, staticKey("k")).Stream(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	frags := drain(t, s)
	if len(frags) != 2 || frags[0] != "<div>partial" {
		t.Fatalf("fragments=%q", frags)
	}
	if !strings.Contains(frags[1], "Quota Exhausted") {
		t.Fatalf("final fragment=%q", frags[1])
	}
}

func TestFragment_PanicShowsRawMessage(t *testing.T) {
	err := fmt.Errorf("recv stream: %w", errors.New("window <stream> reset"))
	frag := Fragment(KindKernelError, "m", err)
	if !strings.Contains(frag, "window &lt;stream&gt; reset") {
		t.Fatalf("fragment=%q, want the raw message", frag)
	}
	if strings.Contains(frag, "recv stream") {
		t.Fatalf("fragment=%q carries the local wrap context", frag)
	}
	if got := Fragment(KindKernelError, "m", errors.New("plain failure")); !strings.Contains(got, "plain failure") {
		t.Fatalf("fragment=%q", got)
	}
}

func TestStream_TransportErrorReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url, staticKey("k")).Stream(context.Background(), sampleRequest())
	if err == nil {
		t.Fatal("expected transport error")
	}
	if Classify(err) != KindKernelError {
		t.Fatalf("Classify=%v, want kernel_error", Classify(err))
	}
}

func TestStream_CloseCancelsProducer(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeChunk(w, "<div>")
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	s, err := newTestClient(srv.URL, staticKey("k")).Stream(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if frag := <-s.Fragments(); frag != "<div>" {
		t.Fatalf("first fragment=%q", frag)
	}
	s.Close()
	if _, ok := <-s.Fragments(); ok {
		t.Fatal("fragments should be closed after Close")
	}
	if s.Kind() != KindCanceled {
		t.Fatalf("Kind=%v, want canceled", s.Kind())
	}
}

func TestClassify_Priority(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{errors.New("Requested entity was not found. (429)"), KindKeyError},
		{errors.New("model not found"), KindKeyError},
		{errors.New("HTTP 429 Too Many Requests"), KindQuotaError},
		{errors.New("Quota exceeded for metric"), KindQuotaError},
		{errors.New("RESOURCE_EXHAUSTED"), KindQuotaError},
		{errors.New("connection reset by peer"), KindKernelError},
		{nil, KindOK},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Fatalf("Classify(%v)=%v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestRetryDelay_FromJSONMessage(t *testing.T) {
	err := errors.New(`{"error":{"code":429,"details":[{"@type":"type.googleapis.com/google.rpc.Help"},{"@type":"type.googleapis.com/google.rpc.RetryInfo","retryDelay":"12s"}]}}`)
	if got := RetryDelay(err); got != "12 seconds" {
		t.Fatalf("RetryDelay=%q, want %q", got, "12 seconds")
	}
	if got := RetryDelay(errors.New("quota")); got != "" {
		t.Fatalf("RetryDelay=%q, want empty", got)
	}
}
