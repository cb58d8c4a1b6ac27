package store

import "errors"

// Sentinel errors the repositories translate gorm failures into. Callers
// match them with errors.Is instead of inspecting driver errors.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("record already exists")
)
