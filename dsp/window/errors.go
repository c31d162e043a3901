package window

import "errors"

var (
	errUnknownWindow    = errors.New("unknown window name")
	errMismatchedLength = errors.New("samples and coefficients must have same length")
)
