package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
)

// AnnotatedError includes more context than a plain error that is useful for troubleshooting.
type AnnotatedError struct {
	// msg is the error message.
	msg string
	// pc is the program counter for the location of the error provided by runtime.Callers.
	pc uintptr
	// attrs are slog attributes that are added to the log event to provide more context for the error.
	attrs []slog.Attr
	// err is the wrapped error, nil for errors created with New.
	err error
}

// New creates a new error with the given message and attributes.
func New(msg string, attrs ...slog.Attr) error {
	return newAnnotated(msg, nil, attrs)
}

// Wrap adds the message msg and attributes to err. Wrapping a nil error returns nil.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	return newAnnotated(msg, err, attrs)
}

func newAnnotated(msg string, err error, attrs []slog.Attr) *AnnotatedError {
	var pcs [1]uintptr
	// Skip runtime.Callers, this function and the exported constructor.
	runtime.Callers(3, pcs[:]) //nolint:mnd // see above
	return &AnnotatedError{
		msg:   msg,
		pc:    pcs[0],
		attrs: attrs,
		err:   err,
	}
}

// NewSentinel creates a plain error without other context that can be used as sentinel error that can be detected
// with errors.Is.
func NewSentinel(msg string) error {
	return errors.New(msg)
}

// Error implements error interface.
func (e *AnnotatedError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %s", e.msg, e.err.Error())
}

// Unwrap returns the wrapped error.
func (e *AnnotatedError) Unwrap() error {
	return e.err
}

// LogValue formats the error for useful logging.
func (e *AnnotatedError) LogValue() slog.Value {
	return slog.GroupValue(e.logAttrs()...)
}

func (e *AnnotatedError) logAttrs() []slog.Attr {
	// Retrieve the source location of the error so that developers can locate it faster.
	frames := runtime.CallersFrames([]uintptr{e.pc})
	source, _ := frames.Next()
	attrs := []slog.Attr{slog.String("source", fmt.Sprintf("%s:%d", source.File, source.Line))}
	return append(attrs, e.attrs...)
}

// SlogError returns a slog attribute describing err, including the attributes of every annotated error in the chain.
//
// The reported source is the one of the innermost annotated error since it is closest to the root cause.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	var (
		source slog.Attr
		attrs  []slog.Attr
	)
	for current := err; current != nil; current = errors.Unwrap(current) {
		annotated, ok := current.(*AnnotatedError) //nolint:errorlint // walking the chain manually
		if !ok {
			continue
		}
		annotatedAttrs := annotated.logAttrs()
		source = annotatedAttrs[0]
		attrs = append(attrs, annotatedAttrs[1:]...)
	}
	group := []slog.Attr{slog.String("msg", err.Error())}
	if source.Key != "" {
		group = append(group, source)
	}
	return slog.Attr{Key: "error", Value: slog.GroupValue(append(group, attrs...)...)}
}

// As exposes stdlib errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is exposes stdlib errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Join exposes stdlib errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Unwrap exposes stdlib errors.Unwrap.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}
