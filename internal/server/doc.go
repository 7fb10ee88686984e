// Package server provides HTTP routing, middleware, and the authorization redirect receiver for the CLI.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] runs in the order it was added to the router; the first added sees the request first.
// [RequestLogger] records each request without its query string.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally. Method-bound routes answer 405
// with an Allow header, and every response carries Cache-Control: no-store.
//
// # Callback Handler
//
// [CallbackHandler] receives the provider redirect and sends the authorization code through a channel.
// It does not exchange the code: the auth session does that with its persisted verifier.
// It only processes one callback to prevent replay.
//
// # Loopback
//
// [Loopback] listens on the host and port of the configured redirect URL, waits for one
// callback, and shuts down. No state parameter is sent with the authorization request;
// the PKCE verifier binds the code to the client that started the login.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
