package asm

import "errors"

var (
	ErrIllegalArgument = errors.New("illegal argument")
	ErrUnsupported     = errors.New("unsupported operation")
	ErrUnbalancedCall  = errors.New("unbalanced call sequence")

	// Panic values
	ErrInvalidPointer        = errors.New("invalid pointer")
	ErrRegisterPoolExhausted = errors.New("register pool exhausted")
	ErrInvalidFrameState     = errors.New("invalid frame state")
)
