package usersapi

import "strings"

const (
	// DefaultDevHost is the host:port the dashboard and API share in development.
	DefaultDevHost = "localhost:8000"
	// DefaultBackendURL is the fixed backend origin used everywhere else.
	DefaultBackendURL = "http://localhost:8000"
)

// ResolveOptions tunes base URL resolution. Zero values use the defaults.
type ResolveOptions struct {
	// Explicit wins over every other rule when set.
	Explicit string
	DevHost  string
	Backend  string
	Scheme   string
}

// ResolveBaseURL picks the API origin for a dashboard served at currentHost.
// On the dev host the API is same-origin; otherwise the fixed backend is used.
func ResolveBaseURL(currentHost string, opts ResolveOptions) string {
	if explicit := strings.TrimSpace(opts.Explicit); explicit != "" {
		return strings.TrimRight(explicit, "/")
	}
	devHost := opts.DevHost
	if devHost == "" {
		devHost = DefaultDevHost
	}
	backend := opts.Backend
	if backend == "" {
		backend = DefaultBackendURL
	}
	scheme := opts.Scheme
	if scheme == "" {
		scheme = "http"
	}
	host := strings.ToLower(strings.TrimSpace(currentHost))
	if host != "" && host == strings.ToLower(devHost) {
		return scheme + "://" + host
	}
	return strings.TrimRight(backend, "/")
}
