package annotation

import "github.com/google/uuid"

// NewID returns a fresh annotation id.
func NewID() string { return uuid.NewString() }
