// Package api talks to the site-ranking API through the relay and turns its
// XML records into site.DataEntry and site.RelatedLink values.
package api

// ErrorCode defines error types for API operations
type ErrorCode string

const (
	// ErrRelayUnavailable represents transport failures calling the relay
	ErrRelayUnavailable ErrorCode = "RelayUnavailable"
	// ErrUpstreamStatus represents a non-success status forwarded by the relay
	ErrUpstreamStatus ErrorCode = "UpstreamStatus"
	// ErrMalformedResponse represents a body that is not an XML document
	ErrMalformedResponse ErrorCode = "MalformedResponse"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}
