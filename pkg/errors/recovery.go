package errors

import (
	"fmt"
	"runtime/debug"
)

// RecoverPanic converts a panic into a coded error so that consumer
// loops can treat it like any other processing failure. Use as:
//
//	defer errors.RecoverPanic(&err)
func RecoverPanic(errPtr *error) {
	if r := recover(); r != nil {
		stack := debug.Stack()
		*errPtr = ErrInternal.
			WithDetail("panic", fmt.Sprintf("%v", r)).
			WithDetail("stack", string(stack)).
			AsFatal()
	}
}

// RecoverPanicWithCallback is like RecoverPanic but also invokes fn with
// the recovered value, typically to log or count the panic.
func RecoverPanicWithCallback(errPtr *error, fn func(recovered interface{}, stack []byte)) {
	if r := recover(); r != nil {
		stack := debug.Stack()
		if fn != nil {
			fn(r, stack)
		}
		*errPtr = ErrInternal.
			WithDetail("panic", fmt.Sprintf("%v", r)).
			AsFatal()
	}
}
