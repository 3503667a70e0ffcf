package fusion

import "errors"

// ErrInvalidInput indicates empty or malformed input: empty candidate lists,
// ragged matrices, shape mismatches. Matched with errors.Is.
var ErrInvalidInput = errors.New("invalid input")
