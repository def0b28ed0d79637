package wordpair

import "errors"

// ErrDegeneratePair is returned when the generated words are empty or equal
var ErrDegeneratePair = errors.New("generated word pair is degenerate")
