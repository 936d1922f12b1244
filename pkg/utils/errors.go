package utils

import (
	"fmt"
)

// Wraps a sentinel error with a formatted detail message. The result matches the sentinel with errors.Is
func MakeError(err error, detailsBody string, args ...any) error {
	return fmt.Errorf("%w: "+detailsBody, append([]any{err}, args...)...)
}

// Panics with a wrapped sentinel error. Used for programming errors the caller cannot recover from
func Panicf(err error, detailsBody string, args ...any) {
	panic(MakeError(err, detailsBody, args...))
}
