// Package session holds the top-level controller that owns token-derived state.
//
// The [Controller] mediates between the [auth.Session] state machine and a
// [services.Recommender]. Classified errors are resolved into state here:
// an expired code clears recommendations, an invalid code is logged and ignored,
// and a not-allowlisted response raises a flag instead of an error. Everything
// else lands in the error slot.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotme/internal/auth"
	"github.com/desertthunder/spotme/internal/models"
	"github.com/desertthunder/spotme/internal/services"
	"github.com/desertthunder/spotme/internal/shared"
)

// History records successful fetches.
type History interface {
	Save(ctx context.Context, result models.RecommendationResult) (*models.Recommendation, error)
}

// Snapshot is a point-in-time copy of controller state for rendering.
type Snapshot struct {
	State          auth.State
	Authenticated  bool
	Result         *models.RecommendationResult
	Loading        bool
	NotAllowlisted bool
	Err            error
}

// Controller owns the recommendation state derived from an [auth.Session].
type Controller struct {
	auth        *auth.Session
	recommender services.Recommender
	history     History
	logger      *log.Logger

	mu             sync.Mutex
	result         *models.RecommendationResult
	loading        int
	notAllowlisted bool
	err            error
}

// NewController wires a controller. history may be nil.
func NewController(a *auth.Session, r services.Recommender, history History, logger *log.Logger) *Controller {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Controller{
		auth:        a,
		recommender: r,
		history:     history,
		logger:      shared.WithLogger(logger, "component", "session"),
	}
}

// StartLogin begins a login attempt and returns the authorization URL.
func (c *Controller) StartLogin(ctx context.Context) (string, error) {
	url, err := c.auth.StartLogin(ctx)
	if err != nil {
		c.setErr(err)
		return "", err
	}
	return url, nil
}

// ReceiveCode hands an authorization code to the auth session.
//
// Expired and invalid codes are resolved locally and return nil.
func (c *Controller) ReceiveCode(ctx context.Context, code string) error {
	c.begin()
	defer c.end()

	err := c.auth.ReceiveCode(ctx, code)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, shared.ErrAccessExpired):
		c.mu.Lock()
		c.result = nil
		c.mu.Unlock()
		return nil
	case errors.Is(err, shared.ErrInvalidAuth):
		c.logger.Warn("ignoring invalid authorization code", "error", err)
		return nil
	default:
		c.setErr(err)
		return err
	}
}

// Generate fetches recommendations with the current token.
//
// A fetch that finishes after the token changed is discarded with [shared.ErrStaleResult].
func (c *Controller) Generate(ctx context.Context) (*models.RecommendationResult, error) {
	token := c.auth.Token()
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}
	gen := c.auth.Generation()

	c.begin()
	defer c.end()

	result, err := c.recommender.Fetch(ctx, token)

	if c.auth.Generation() != gen {
		c.logger.Warn("discarding recommendations fetched with a replaced token")
		return nil, shared.ErrStaleResult
	}

	if err != nil {
		if errors.Is(err, shared.ErrNotAllowlisted) {
			c.mu.Lock()
			c.notAllowlisted = true
			c.mu.Unlock()
			c.logger.Info("member is not allowlisted")
			return nil, err
		}
		c.setErr(err)
		return nil, err
	}

	c.mu.Lock()
	c.result = result
	c.err = nil
	c.mu.Unlock()

	if c.history != nil {
		if _, err := c.history.Save(ctx, *result); err != nil {
			c.logger.Error("failed to save recommendations", "error", err)
		}
	}
	return result, nil
}

// Logout clears the token and recommendations.
func (c *Controller) Logout() {
	c.auth.Logout()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = nil
	c.notAllowlisted = false
	c.err = nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:          c.auth.State(),
		Authenticated:  c.auth.Token() != "",
		Result:         c.result,
		Loading:        c.loading > 0,
		NotAllowlisted: c.notAllowlisted,
		Err:            c.err,
	}
}

func (c *Controller) Session() *auth.Session { return c.auth }

func (c *Controller) begin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading++
	c.notAllowlisted = false
}

func (c *Controller) end() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading--
}

func (c *Controller) setErr(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	c.logger.Error("operation failed", "error", err)
}
