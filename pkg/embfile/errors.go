package embfile

import "errors"

var (
	ErrBadHeader   = errors.New("embfile: invalid header fields")
	ErrDimMismatch = errors.New("embfile: vector length does not match declared dimension")
)
