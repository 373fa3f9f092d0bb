package domain

import (
	"errors"
	"fmt"
)

// UpstreamError indicates that an HTTP call to an external provider failed
// (transport error, timeout, or non-2xx status).
type UpstreamError struct {
	Source string // Provider name, e.g. "fred", "newsapi", "yahoo"
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Source, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ParseError indicates that a provider responded, but the payload did not
// have the expected shape.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s response: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConfigError indicates a missing or invalid credential. Clients return it
// before attempting any network call.
type ConfigError struct {
	Key string // Environment variable name, e.g. "FRED_API_KEY"
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing configuration: %s", e.Key)
}

// IsUpstream reports whether err is (or wraps) an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// IsParse reports whether err is (or wraps) a ParseError.
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsConfig reports whether err is (or wraps) a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
