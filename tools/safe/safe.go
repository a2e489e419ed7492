package safe

import (
	"reflect"

	"PPClient/logger"
	"PPClient/tools/errs"
)

// MustNotNil panics if the given value is nil.
// Useful for enforcing required fields during struct initialization.
func MustNotNil(v any, name string) {
	if v == nil || reflect.ValueOf(v).IsNil() {
		panic(name + " must not be nil")
	}
}

// SafeGo starts a new goroutine that recovers from panic,
// so that a misbehaving handler doesn't take the whole client down.
func SafeGo(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[SafeGo] %+v", errs.ErrPanic(r))
			}
		}()
		f()
	}()
}
