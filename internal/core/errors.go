package core

import "errors"

// Sentinel errors shared by the services and mapped to HTTP statuses in the
// handlers. Wrap them with fmt.Errorf("%w: ...") to add context.
var (
	// ErrQuotaExceeded means the user's monthly analysis limit is spent.
	ErrQuotaExceeded = errors.New("monthly ticket limit reached")

	// ErrUpstream means the external predictor failed (timeout, bad output,
	// non-success status). Not retried.
	ErrUpstream = errors.New("prediction upstream failed")

	// ErrNotFound means a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation means the request payload was rejected before any work.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized means the identity token was missing or invalid.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNoUser means an identity token was requested while signed out.
	ErrNoUser = errors.New("no signed-in user")

	// ErrExtraction means no recognized ticket content was found on the page.
	ErrExtraction = errors.New("no ticket content found")
)
