package trips

import (
	"errors"
	"fmt"
)

// ErrValidation marks a request the service refuses to act on.
var ErrValidation = errors.New("validation failed")

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
