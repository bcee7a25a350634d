package post

import "errors"

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrMalformedEvent = errors.New("malformed event")
	ErrPersistence    = errors.New("persistence failure")
	ErrQuery          = errors.New("query failure")
)
