// Package types holds the JSON envelopes shared by every HTTP response.
package types

// SuccessEnvelope wraps any successful payload under a data key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error body. Details is omitted unless
// the error code allows exposing it.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
