package schedule

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownWorkOrder     = errors.New("work order not found")
	ErrNotPermitted         = errors.New("action not permitted for this role")
	ErrDragInProgress       = errors.New("a drag is already in progress")
	ErrNotDragging          = errors.New("no drag in progress")
	ErrEmptySelection       = errors.New("no work orders selected")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrWrongOverlay         = errors.New("overlay not open")
)

// ValidationError blocks a form submission before any store call.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
