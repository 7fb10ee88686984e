package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/spotme/internal/shared"
	tu "github.com/desertthunder/spotme/internal/testing"
)

var sampleResult = map[string]any{
	"recommendations": []string{"You might enjoy indie rock"},
	"genres": map[string]any{
		"indie rock": map[string]any{
			"artists": []map[string]string{{"name": "Band", "spotifyPageUrl": "https://open.spotify.com/artist/1", "imageUrl": "https://i/1.png"}},
		},
	},
}

func quietLogger() *log.Logger { return log.New(io.Discard) }

func TestClassifyEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"not allowlisted", `{"code": 3}`, shared.ErrNotAllowlisted},
		{"server error", `{"code": 1, "error": "boom"}`, shared.ErrServerError},
		{"client error", `{"code": 2}`, shared.ErrClientError},
		{"success without result", `{"code": 0}`, shared.ErrAmbiguousResult},
		{"success with null result", `{"code": 0, "result": null}`, shared.ErrAmbiguousResult},
		{"missing code", `{"result": {"recommendations": []}}`, shared.ErrAmbiguousResult},
		{"string code", `{"code": "0", "result": {}}`, shared.ErrAmbiguousResult},
		{"fractional code", `{"code": 1.5}`, shared.ErrAmbiguousResult},
		{"unknown code", `{"code": 7}`, shared.ErrAmbiguousResult},
		{"code 3 ignores result", `{"code": 3, "result": {"recommendations": []}}`, shared.ErrNotAllowlisted},
		{"genre without artists", `{"code": 0, "result": {"recommendations": [], "genres": {"rock": {"artists": []}}}}`, shared.ErrAmbiguousResult},
		{"invalid json", `not json`, shared.ErrAPIRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ClassifyEnvelope([]byte(tt.body))
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("categories stay distinct", func(t *testing.T) {
		_, err := ClassifyEnvelope([]byte(`{"code": 0}`))
		assert.NotErrorIs(t, err, shared.ErrServerError)
		assert.NotErrorIs(t, err, shared.ErrClientError)
	})

	t.Run("error detail is kept", func(t *testing.T) {
		_, err := ClassifyEnvelope([]byte(`{"code": 1, "error": "database down"}`))
		assert.ErrorContains(t, err, "database down")
	})

	t.Run("success", func(t *testing.T) {
		result, err := ClassifyEnvelope([]byte(`{"code": 0, "result": {"recommendations": ["a"], "genres": {"b": {"artists": [{"name": "x"}]}, "a": {"artists": [{"name": "y"}]}}, "flierImageUrl": "https://i/f.png"}}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, result.Recommendations)
		assert.Equal(t, []string{"b", "a"}, result.Genres.Keys())
		assert.Equal(t, "https://i/f.png", result.FlierImageURL)
	})
}

func TestRecommendationService(t *testing.T) {
	ctx := context.Background()

	t.Run("Fetch sends token as query parameter", func(t *testing.T) {
		srv := tu.NewRecommendationServer(t, tu.Envelope(t, 0, sampleResult, ""))
		svc := NewRecommendationService(srv.URL+"/top-items", srv.Client(), 0, quietLogger())

		result, err := svc.Fetch(ctx, "tok-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"You might enjoy indie rock"}, result.Recommendations)
		assert.Equal(t, []string{"tok-1"}, srv.Tokens())
	})

	t.Run("Fetch requires a token", func(t *testing.T) {
		svc := NewRecommendationService("http://unused", nil, 0, quietLogger())
		_, err := svc.Fetch(ctx, "")
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
	})

	t.Run("Fetch classifies envelope", func(t *testing.T) {
		srv := tu.NewRecommendationServer(t, tu.Envelope(t, 3, nil, ""))
		svc := NewRecommendationService(srv.URL, srv.Client(), 0, quietLogger())

		_, err := svc.Fetch(ctx, "tok")
		assert.ErrorIs(t, err, shared.ErrNotAllowlisted)
	})

	t.Run("Fetch transport error", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("network down"))}
		svc := NewRecommendationService("http://example.test/top", client, 0, quietLogger())

		_, err := svc.Fetch(ctx, "tok")
		assert.ErrorIs(t, err, shared.ErrAPIRequest)
	})

	t.Run("Fetch body read error", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
		client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
		svc := NewRecommendationService("http://example.test/top", client, 0, quietLogger())

		_, err := svc.Fetch(ctx, "tok")
		assert.ErrorIs(t, err, shared.ErrAPIRequest)
	})

	t.Run("Fetch respects rate limit", func(t *testing.T) {
		srv := tu.NewRecommendationServer(t, tu.Envelope(t, 0, sampleResult, ""))
		svc := NewRecommendationService(srv.URL, srv.Client(), 0.001, quietLogger())

		_, err := svc.Fetch(ctx, "tok")
		require.NoError(t, err)

		short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, err = svc.Fetch(short, "tok")
		assert.ErrorIs(t, err, shared.ErrAPIRequest)
		assert.Len(t, srv.Tokens(), 1)
	})
}
