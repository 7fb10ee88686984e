package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/desertthunder/spotme/internal/models"
	"github.com/desertthunder/spotme/internal/shared"
)

// maxBodySize caps how much of a response is read.
const maxBodySize = 4 << 20

// RecommendationService implements [Recommender] against the top items endpoint.
type RecommendationService struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewRecommendationService creates a client for endpoint.
//
// perSecond <= 0 disables throttling. A nil client uses one with a 30s timeout.
func NewRecommendationService(endpoint string, client *http.Client, perSecond float64, logger *log.Logger) *RecommendationService {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}

	return &RecommendationService{
		endpoint:   endpoint,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     shared.WithLogger(logger, "component", "recommendations"),
	}
}

// Fetch implements [Recommender].
func (s *RecommendationService) Fetch(ctx context.Context, token string) (*models.RecommendationResult, error) {
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	u, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid endpoint: %w", shared.ErrInvalidConfig, err)
	}
	q := u.Query()
	q.Set("access_token", token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrAPIRequest, err)
	}

	s.logger.Debug("recommendations response", "status", resp.StatusCode, "bytes", len(body))
	return ClassifyEnvelope(body)
}

// ClassifyEnvelope interprets a `{code, result, error}` envelope.
//
// Checks run in order: code 0 with a result, then codes 3, 1 and 2.
// Anything else, including code 0 without a result, is [shared.ErrAmbiguousResult].
func ClassifyEnvelope(body []byte) (*models.RecommendationResult, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: response is not valid JSON", shared.ErrAPIRequest)
	}

	env := gjson.ParseBytes(body)
	code := env.Get("code")
	result := env.Get("result")
	detail := env.Get("error").String()

	hasCode := code.Type == gjson.Number && code.Num == math.Trunc(code.Num)
	hasResult := result.Exists() && result.Type != gjson.Null

	switch {
	case hasCode && code.Int() == CodeOK && hasResult:
		var out models.RecommendationResult
		if err := json.Unmarshal([]byte(result.Raw), &out); err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrAmbiguousResult, err)
		}
		if err := out.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrAmbiguousResult, err)
		}
		return &out, nil
	case hasCode && code.Int() == CodeNotAllowlisted:
		return nil, withDetail(shared.ErrNotAllowlisted, detail)
	case hasCode && code.Int() == CodeServerError:
		return nil, withDetail(shared.ErrServerError, detail)
	case hasCode && code.Int() == CodeClientError:
		return nil, withDetail(shared.ErrClientError, detail)
	default:
		return nil, withDetail(shared.ErrAmbiguousResult, detail)
	}
}

func withDetail(sentinel error, detail string) error {
	if detail == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, detail)
}
