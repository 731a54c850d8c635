// Package debug turns panics raised during an analysis into ordinary results.
package debug

import (
	"fmt"
)

// ErrPanic matches every error produced from a recovered panic.
var ErrPanic = fmt.Errorf("panic")

// PanicErrorMessage carries a recovered panic value and the goroutine stack at the time of the panic.
type PanicErrorMessage struct {
	Root       string
	Inner      string
	Stacktrace []byte
}

func (e *PanicErrorMessage) Error() string {
	return fmt.Sprintf("panic analyzing %s: %s", e.Root, e.Inner)
}

// Unwrap lets errors.Is match ErrPanic.
func (e *PanicErrorMessage) Unwrap() []error {
	return []error{ErrPanic}
}
