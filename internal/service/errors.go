package service

import "errors"

// ErrValidation marks caller input that cannot be processed (missing fields, blank text).
var ErrValidation = errors.New("validation error")
