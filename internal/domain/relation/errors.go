package relation

import "errors"

// ErrInvalidDocument is returned when a payload is not a JSON object.
var ErrInvalidDocument = errors.New("document must be a JSON object")
