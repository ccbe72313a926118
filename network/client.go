// Package network provides the HTTP client used to reach the stream origin.
package network

import (
	"net/http"
	"time"

	"github.com/emeltv/emel/log"
	cleanhttp "github.com/hashicorp/go-cleanhttp"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
)

const (
	requestTimeout = 15 * time.Second
	retryWaitMin   = 250 * time.Millisecond
	retryWaitMax   = 2 * time.Second
	retryMax       = 2
)

// Client is the HTTP client shared across the application.
// Connection errors and 5xx answers are retried with backoff.
var Client = &retryablehttp.Client{
	HTTPClient: &http.Client{
		Transport: cleanhttp.DefaultPooledTransport(),
		Timeout:   requestTimeout,
	},
	Logger:       leveledLogger{},
	RetryWaitMin: retryWaitMin,
	RetryWaitMax: retryWaitMax,
	RetryMax:     retryMax,
	Backoff:      retryablehttp.DefaultBackoff,
	CheckRetry:   retryablehttp.DefaultRetryPolicy,
	ErrorHandler: retryablehttp.PassthroughErrorHandler,
}

// leveledLogger routes retry diagnostics into the application log.
type leveledLogger struct{}

func fields(keysAndValues []interface{}) log.Fields {
	f := log.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if k, ok := keysAndValues[i].(string); ok {
			f[k] = keysAndValues[i+1]
		}
	}
	return f
}

func (leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	log.With(fields(keysAndValues)).Error(msg)
}

func (leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	log.With(fields(keysAndValues)).Info(msg)
}

func (leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	log.With(fields(keysAndValues)).Debug(msg)
}

func (leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	log.With(fields(keysAndValues)).Warn(msg)
}

var _ retryablehttp.LeveledLogger = leveledLogger{}
