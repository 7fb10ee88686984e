package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotme/internal/shared"
)

// Loopback serves the redirect URI on the local machine for one login.
type Loopback struct {
	addr    string
	path    string
	timeout time.Duration
	logger  *log.Logger

	mu       sync.Mutex
	handler  *CallbackHandler
	listener net.Listener
	srv      *http.Server
	errs     chan error
	waiting  bool
}

// NewLoopback derives the listen address and callback path from redirectURL.
func NewLoopback(redirectURL string, timeout time.Duration, logger *log.Logger) (*Loopback, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return nil, fmt.Errorf("%w: redirect url: %w", shared.ErrInvalidConfig, err)
	}
	if u.Scheme != "http" || u.Host == "" {
		return nil, fmt.Errorf("%w: redirect url %q must be a local http URL", shared.ErrInvalidConfig, redirectURL)
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	addr := u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "80")
	}

	return &Loopback{
		addr:    addr,
		path:    u.Path,
		timeout: timeout,
		logger:  shared.WithLogger(logger, "component", "loopback"),
	}, nil
}

// Start binds the listener and begins serving. Calling it again is a no-op.
func (l *Loopback) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", l.addr, err)
	}

	l.handler = NewCallbackHandler(l.path)
	router := NewBasicRouter()
	router.Use(RequestLogger(l.logger))
	router.Handler(l.handler)

	l.listener = ln
	l.srv = &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	l.errs = make(chan error, 1)

	paths := router.Paths()
	go func() {
		l.logger.Info("waiting for authorization redirect", "addr", ln.Addr().String(), "paths", paths)
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.errs <- err
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before [Loopback.Start].
func (l *Loopback) Addr() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener != nil {
		return l.listener.Addr().String()
	}
	return l.addr
}

// WaitForCode blocks until the redirect delivers a code, the timeout passes or ctx ends.
// The server is shut down before returning. A second call made while one is outstanding
// returns [shared.ErrCallbackConsumed] at once.
func (l *Loopback) WaitForCode(ctx context.Context) (string, error) {
	l.mu.Lock()
	if l.waiting {
		l.mu.Unlock()
		return "", shared.ErrCallbackConsumed
	}
	l.waiting = true
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.waiting = false
		l.mu.Unlock()
	}()

	if err := l.Start(); err != nil {
		return "", err
	}
	defer l.shutdown()

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	l.mu.Lock()
	if l.handler == nil {
		l.mu.Unlock()
		return "", shared.ErrCallbackConsumed
	}
	results, errs := l.handler.Result(), l.errs
	l.mu.Unlock()

	select {
	case result, ok := <-results:
		if !ok {
			return "", shared.ErrCallbackConsumed
		}
		if err := result.Error(); err != nil {
			return "", err
		}
		return result.Code, nil
	case err := <-errs:
		return "", fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return "", fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, l.timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (l *Loopback) shutdown() {
	l.mu.Lock()
	srv := l.srv
	l.srv, l.listener, l.handler = nil, nil, nil
	l.mu.Unlock()
	if srv == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		l.logger.Warn("error shutting down server", "error", err)
	}
}
