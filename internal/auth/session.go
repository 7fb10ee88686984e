package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/spotme/internal/shared"
)

// Provider error descriptions with dedicated handling.
const (
	descCodeExpired = "Authorization code expired"
	descInvalidCode = "Invalid authorization code"
)

// State is a position in the login flow.
type State int

const (
	LoggedOut State = iota
	AwaitingRedirect
	ExchangingCode
	Authenticated
	Failed
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged_out"
	case AwaitingRedirect:
		return "awaiting_redirect"
	case ExchangingCode:
		return "exchanging_code"
	case Authenticated:
		return "authenticated"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ProviderError carries an unclassified token endpoint failure.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return e.Description
}

// Session drives the PKCE authorization code flow and owns the access token.
type Session struct {
	config  *oauth2.Config
	store   VerifierStore
	length  int
	client  *http.Client
	logger  *log.Logger
	mu      sync.Mutex
	state   State
	token   *oauth2.Token
	failure error
	gen     uint64
}

// NewSession creates a logged-out [Session] for a public client.
func NewSession(cfg shared.SpotifyConfig, store VerifierStore, logger *log.Logger) *Session {
	length := cfg.VerifierLength
	if length == 0 {
		length = DefaultVerifierLength
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Session{
		config: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURL,
			Scopes:      strings.Fields(cfg.Scope),
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthorizeURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		store:  store,
		length: length,
		logger: shared.WithLogger(logger, "component", "auth"),
	}
}

// WithHTTPClient sets the client used for the token exchange.
func (s *Session) WithHTTPClient(c *http.Client) *Session {
	s.client = c
	return s
}

// StartLogin persists a fresh verifier and returns the authorization URL.
//
// It may be called from any state. A held token is kept until a new one replaces it.
func (s *Session) StartLogin(ctx context.Context) (string, error) {
	verifier, err := GenerateVerifier(s.length)
	if err != nil {
		return "", err
	}
	if err := s.store.SaveVerifier(ctx, verifier); err != nil {
		return "", fmt.Errorf("failed to persist verifier: %w", err)
	}

	authURL := s.config.AuthCodeURL("",
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("code_challenge", DeriveChallenge(verifier)),
	)

	s.mu.Lock()
	s.state = AwaitingRedirect
	s.failure = nil
	s.mu.Unlock()

	s.logger.Debug("login started", "url", authURL)
	return authURL, nil
}

// ReceiveCode exchanges an authorization code for an access token.
//
// Results by provider outcome:
//   - success: [Authenticated]
//   - missing verifier: [Failed] with [shared.ErrVerifierMissing], no request is made
//   - expired code: token cleared, [LoggedOut], [shared.ErrAccessExpired]
//   - invalid code: prior state and token kept, [shared.ErrInvalidAuth]
//   - anything else: [Failed] with [shared.ErrProviderError]
func (s *Session) ReceiveCode(ctx context.Context, code string) error {
	if code == "" {
		return fmt.Errorf("%w: authorization code", shared.ErrMissingArgument)
	}

	s.mu.Lock()
	prior := s.state
	s.state = ExchangingCode
	s.mu.Unlock()

	verifier, err := s.store.LoadVerifier(ctx)
	if err != nil {
		if !errors.Is(err, shared.ErrVerifierMissing) {
			err = fmt.Errorf("%w: %w", shared.ErrVerifierMissing, err)
		}
		s.fail(err)
		return err
	}

	if s.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	}

	token, err := s.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return s.classify(err, prior)
	}

	s.mu.Lock()
	s.token = token
	s.state = Authenticated
	s.failure = nil
	s.gen++
	s.mu.Unlock()

	s.logger.Info("authenticated", "expires", token.Expiry)
	return nil
}

func (s *Session) classify(err error, prior State) error {
	var rErr *oauth2.RetrieveError
	if !errors.As(err, &rErr) {
		wrapped := fmt.Errorf("%w: %w", shared.ErrProviderError, err)
		s.fail(wrapped)
		return wrapped
	}

	switch rErr.ErrorDescription {
	case descCodeExpired:
		s.mu.Lock()
		s.token = nil
		s.state = LoggedOut
		s.failure = nil
		s.gen++
		s.mu.Unlock()
		s.logger.Info("authorization code expired, session cleared")
		return fmt.Errorf("%w: %s", shared.ErrAccessExpired, rErr.ErrorDescription)
	case descInvalidCode:
		s.mu.Lock()
		s.state = prior
		s.mu.Unlock()
		s.logger.Warn("provider rejected authorization code", "error", rErr.ErrorCode)
		return fmt.Errorf("%w: %s", shared.ErrInvalidAuth, rErr.ErrorDescription)
	default:
		pErr := &ProviderError{Code: rErr.ErrorCode, Description: rErr.ErrorDescription}
		if pErr.Code == "" && pErr.Description == "" && rErr.Response != nil {
			pErr.Description = rErr.Response.Status
		}
		wrapped := fmt.Errorf("%w: %w", shared.ErrProviderError, pErr)
		s.fail(wrapped)
		return wrapped
	}
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	s.state = Failed
	s.failure = err
	s.mu.Unlock()
	s.logger.Error("login failed", "error", err)
}

// Logout clears the token and returns to [LoggedOut].
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
	s.state = LoggedOut
	s.failure = nil
	s.gen++
}

// UseToken adopts an access token obtained by an earlier exchange and moves to [Authenticated].
func (s *Session) UseToken(accessToken string) error {
	if accessToken == "" {
		return fmt.Errorf("%w: access token", shared.ErrMissingArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	s.state = Authenticated
	s.failure = nil
	s.gen++
	return nil
}

// Token returns the live access token, or "" when none is held.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == nil {
		return ""
	}
	return s.token.AccessToken
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Failure returns the error that moved the session to [Failed].
func (s *Session) Failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Generation changes every time the token is set or cleared.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// CodeFromURL extracts the authorization code from a redirect URL or a bare query string.
func CodeFromURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	query := raw
	if u, err := url.Parse(raw); err == nil && (u.Scheme != "" || u.RawQuery != "") {
		query = u.RawQuery
	}
	query = strings.TrimPrefix(query, "?")

	values, err := url.ParseQuery(query)
	if err != nil {
		return "", false
	}
	code := values.Get("code")
	return code, code != ""
}
