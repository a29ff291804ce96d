package cli

// ErrorCode defines error types for CLI operations
type ErrorCode string

const (
	InvalidFormat ErrorCode = "InvalidFormat"
	LookupFailed  ErrorCode = "LookupFailed"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}
