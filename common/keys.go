package common

type contextKey struct{ name string }

func (k *contextKey) String() string { return "changeflare context key " + k.name }

// HTTPClientKey carries an override *http.Client for outbound provider
// calls, mainly for proxied deployments and tests.
var HTTPClientKey = &contextKey{"http-client"}
