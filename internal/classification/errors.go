package classification

import "errors"

// Rule validation errors.
var (
	ErrEmptyCategory     = errors.New("rule has empty category")
	ErrDuplicateCategory = errors.New("duplicate rule category")
	ErrNoKeywords        = errors.New("rule has no keywords")
)
