package log

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/motemen/go-loghttp"
)

// Logger is the global logger instance
var Logger *slog.Logger

var level = new(slog.LevelVar)

// InitLogger initializes the global logger
// It sets the log level to Debug if SITELENS_DEBUG is set.
// Output is text on a terminal and JSON otherwise.
func InitLogger() {
	level.Set(slog.LevelInfo)
	if os.Getenv("SITELENS_DEBUG") != "" {
		level.Set(slog.LevelDebug)
	}

	opts := &slog.HandlerOptions{
		AddSource: false,
		Level:     level,
	}

	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	Logger = slog.New(handler)
	slog.SetDefault(Logger)

	loghttp.DefaultTransport.LogRequest = logRequest
	loghttp.DefaultTransport.LogResponse = logResponse
}

func logRequest(req *http.Request) {
	Debug("HTTP request",
		"method", req.Method,
		"url", req.URL.String(),
		"headers", req.Header,
	)
}

func logResponse(resp *http.Response) {
	Debug("HTTP response",
		"method", resp.Request.Method,
		"url", resp.Request.URL.String(),
		"status", resp.Status,
		"status_code", resp.StatusCode,
		"headers", resp.Header,
	)
}

// init initializes the logger when the package is imported
func init() {
	InitLogger()
}

// SetDebug switches the global logger between Debug and Info level
func SetDebug(enabled bool) {
	if enabled {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
}

// EnableGlobalHTTP routes http.DefaultClient through the logging transport
func EnableGlobalHTTP() {
	http.DefaultTransport = loghttp.DefaultTransport
}

// Transport wraps base with the same request/response debug logging as
// EnableGlobalHTTP
func Transport(base http.RoundTripper) http.RoundTripper {
	return &loghttp.Transport{
		Transport:   base,
		LogRequest:  logRequest,
		LogResponse: logResponse,
	}
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}
