// Package relay implements the same-origin passthrough to the site-ranking API.
//
// The handler re-issues the incoming GET to a fixed upstream URL with the
// query string unchanged and copies the upstream status, headers and body
// back. It performs no transformation, caching, authentication or rate
// limiting.
package relay

import (
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ka2n/sitelens/log"
	"github.com/morikuni/failure/v2"
)

// ErrorCode defines error types for relay operations
type ErrorCode string

const (
	// ErrUpstreamUnreachable represents transport failures toward the upstream
	ErrUpstreamUnreachable ErrorCode = "UpstreamUnreachable"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}

// Handler forwards requests to Upstream
type Handler struct {
	upstream *url.URL
	client   *http.Client
}

// New creates a relay handler for the upstream URL.
// A nil client uses NewClient. A client given here must not decompress
// responses, or bodies stop being relayed verbatim.
func New(upstream string, client *http.Client) (*Handler, error) {
	u, err := url.Parse(upstream)
	if err != nil {
		return nil, failure.Wrap(err, failure.WithCode(ErrUpstreamUnreachable),
			failure.Message("Invalid upstream URL"),
			failure.Context{"upstream": upstream})
	}
	if client == nil {
		client = NewClient()
	}
	return &Handler{upstream: u, client: client}, nil
}

// NewClient returns the client the relay uses by default. It never asks the
// upstream for compression on its own, and it never decodes a compressed
// body, so Content-Encoding, Content-Length and the body reach the caller
// as the upstream sent them.
func NewClient() *http.Client {
	return &http.Client{
		Transport: log.Transport(&http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			DisableCompression:    true,
		}),
	}
}

// ServeHTTP forwards r to the upstream. Upstream error statuses are passed
// through like any other response.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := *h.upstream
	target.RawQuery = r.URL.RawQuery

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer resp.Body.Close()

	for name, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		log.Warn("Relay body copy interrupted", "url", target.String(), "copied", n, "error", err)
		return
	}
	log.Debug("Relayed", "url", target.String(), "status", resp.StatusCode, "bytes", n)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	err = failure.Wrap(err, failure.WithCode(ErrUpstreamUnreachable),
		failure.Message("Upstream unreachable"),
		failure.Context{"upstream": h.upstream.String(), "query": r.URL.RawQuery},
	)
	log.Error("Relay failed", "error", err)
	http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
}
