package model

import "errors"

var (
	// ErrNotFound means the metadata service returned no data for an id.
	ErrNotFound = errors.New("not found")
	// ErrMalformedToken means a callback token failed to decode.
	ErrMalformedToken = errors.New("malformed navigation token")
	// ErrRateLimited means the admission check rejected the event.
	ErrRateLimited = errors.New("rate limited")
	// ErrUpstreamTimeout means a metadata or gateway call exceeded its budget.
	// Displayed as ErrNotFound, logged distinctly.
	ErrUpstreamTimeout = errors.New("upstream timeout")
	// ErrDelivery means the gateway rejected an outbound send.
	ErrDelivery = errors.New("gateway delivery failure")
)
