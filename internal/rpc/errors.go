package rpc

import "fmt"

// ParamError is the distinguished "bad input" signal a handler returns for an
// unknown action or missing/invalid arguments. The dispatcher maps it to
// CodeInvalidParams; every other handler error maps to CodeInternalError.
type ParamError struct {
	msg string
}

func (e *ParamError) Error() string { return e.msg }

func Paramf(format string, args ...any) *ParamError {
	return &ParamError{msg: fmt.Sprintf(format, args...)}
}
