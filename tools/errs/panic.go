package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

const CodePanic = 1900 // recovered goroutine panic

// ErrPanic turns a recover() value into a coded error with a stack, so
// recovered panics flow through the same logging path as other errors.
func ErrPanic(r any) error {
	if r == nil {
		return nil
	}
	return errors.WithStack(&CodeError{
		Code:   CodePanic,
		Msg:    "panic recovered",
		Detail: fmt.Sprint(r),
	})
}
