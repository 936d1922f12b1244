package code

import "errors"

var ErrUnknownKind = errors.New("unknown value kind")
