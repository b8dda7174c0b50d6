package evtrack

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID generates a new unique report ID
func NewID() string {
	u, err := uuid.NewRandom()
	if err != nil {
		return ""
	}
	return u.String()
}

// typeName returns the Go type of v for reports
func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
