package storygen

import "errors"

// ErrNotConfigured means the API key or model is missing. Checked before
// any network call so a misconfigured server fails fast.
var ErrNotConfigured = errors.New("story provider not configured")

// ErrEmptyResponse means the provider answered 2xx but produced no usable text
var ErrEmptyResponse = errors.New("story provider returned an empty response")

// UpstreamError wraps a failure reported by the story provider
type UpstreamError struct {
	Provider string
	Message  string
}

func (e *UpstreamError) Error() string {
	return e.Provider + ": " + e.Message
}
