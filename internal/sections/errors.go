package sections

import (
	"errors"
	"fmt"
)

// ErrPayloadMismatch is returned when a payload is assigned to a section of another type.
var ErrPayloadMismatch = errors.New("payload type does not match section type")

// UnknownTypeError is returned for a tag outside the section catalog.
type UnknownTypeError struct {
	Type Type
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown section type: %q", string(e.Type))
}

// IsUnknownType reports whether err is an *UnknownTypeError.
func IsUnknownType(err error) bool {
	var ute *UnknownTypeError
	return errors.As(err, &ute)
}
