// package testing contains shared testing utilities
package testing

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// RecommendationServer serves canned envelopes and records the tokens it receives.
type RecommendationServer struct {
	*httptest.Server

	mu     sync.Mutex
	body   string
	tokens []string
	hold   chan struct{}
}

// NewRecommendationServer starts a server answering every request with body.
func NewRecommendationServer(t *testing.T, body string) *RecommendationServer {
	t.Helper()
	rs := &RecommendationServer{body: body}
	rs.Server = httptest.NewServer(http.HandlerFunc(rs.serve))
	t.Cleanup(func() {
		rs.Release()
		rs.Close()
	})
	return rs
}

// Envelope encodes a `{code, result, error}` envelope. A nil result is omitted.
func Envelope(t *testing.T, code int, result any, errMsg string) string {
	t.Helper()
	env := map[string]any{"code": code}
	if result != nil {
		env["result"] = result
	}
	if errMsg != "" {
		env["error"] = errMsg
	}
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("failed to encode envelope: %v", err)
	}
	return string(data)
}

func (rs *RecommendationServer) serve(w http.ResponseWriter, r *http.Request) {
	rs.mu.Lock()
	rs.tokens = append(rs.tokens, r.URL.Query().Get("access_token"))
	body, hold := rs.body, rs.hold
	rs.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

// SetBody replaces the envelope served for later requests.
func (rs *RecommendationServer) SetBody(body string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.body = body
}

// Hold makes requests block until [RecommendationServer.Release] is called.
func (rs *RecommendationServer) Hold() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.hold = make(chan struct{})
}

// Release unblocks held requests.
func (rs *RecommendationServer) Release() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.hold != nil {
		close(rs.hold)
		rs.hold = nil
	}
}

// Tokens returns the access tokens received so far.
func (rs *RecommendationServer) Tokens() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]string, len(rs.tokens))
	copy(out, rs.tokens)
	return out
}

// NewTokenServer serves successive token endpoint responses; the last one repeats.
//
// Responses with an "error" field are sent with status 400.
func NewTokenServer(t *testing.T, responses ...map[string]any) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	i := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		body := responses[min(i, len(responses)-1)]
		i++
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if _, isErr := body["error"]; isErr {
			w.WriteHeader(http.StatusBadRequest)
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TokenResponse is a successful token endpoint body.
func TokenResponse(token string) map[string]any {
	return map[string]any{"access_token": token, "token_type": "Bearer", "expires_in": 3600}
}

// TokenError is a token endpoint error body.
func TokenError(desc string) map[string]any {
	return map[string]any{"error": "invalid_grant", "error_description": desc}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
