// internal/coordinator/errors.go
package coordinator

import "fmt"

// Kind buckets every failure a connection can be told about. All kinds
// are recovered at the handler boundary and reported privately to the
// originating connection; none of them crash the process or reach a room.
type Kind string

const (
	KindValidation Kind = "ValidationError"
	KindAuth       Kind = "AuthError"
	KindNotFound   Kind = "NotFound"
	KindConflict   Kind = "Conflict"
	KindForbidden  Kind = "Forbidden"
)

// Error is a failure reported privately to one connection.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Errorf builds an Error of the given kind.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
