package matrix

import "errors"

// Errors returned by matrix operations. They are wrapped with shape details,
// so test with errors.Is.
var (
	ErrNilMatrix     = errors.New("matrix is nil")
	ErrInvalidShape  = errors.New("invalid matrix shape")
	ErrShapeMismatch = errors.New("matrix shape mismatch")
	ErrInvalidAxis   = errors.New("flatten axis must be 0 or 1")
	ErrRowRange      = errors.New("row range out of bounds")
	ErrParse         = errors.New("malformed matrix text")
)
