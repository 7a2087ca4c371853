package pipeline

import "errors"

// Fatal errors returned by Controller.Handle. Every other failure is reported
// in the Response.
var (
	ErrInvalidInput  = errors.New("pipeline: invalid input")
	ErrUnauthorized  = errors.New("pipeline: caller is not a member of the group")
	ErrMisconfigured = errors.New("pipeline: generation is misconfigured")
)
