package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidRequest        = errors.New("invalid request")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrUnsupportedPreset     = errors.New("unsupported engine preset")
)
