package messaging

import "errors"

var (
	ErrNilConfig = errors.New("config cannot be nil")
	ErrNilRandom = errors.New("random source cannot be nil")
	ErrNilInput  = errors.New("input cannot be nil")
)
