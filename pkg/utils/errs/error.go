package errs

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// CustomError represents an error with structured arguments and an optional wrapped cause.
type CustomError struct {
	message string
	args    map[string]interface{}
	wrapped error
}

// New creates a new CustomError instance.
func New(message string) *CustomError {
	return &CustomError{
		message: message,
		args:    make(map[string]interface{}),
	}
}

// Error implements the error interface.
func (e *CustomError) Error() string {
	return e.fullErrorString()
}

// Arg adds an argument to the error.
func (e *CustomError) Arg(key string, value interface{}) *CustomError {
	e.args[key] = value
	return e
}

// Wrap wraps another error (can be of the same type or a standard error).
func (e *CustomError) Wrap(err error) *CustomError {
	if err != nil {
		e.wrapped = err
	}
	return e
}

// Unwrap returns the wrapped error if any.
func (e *CustomError) Unwrap() error {
	return e.wrapped
}

// MarshalZerologObject lets the error be embedded in a log event:
// logger.Error().EmbedObject(err).Msg("...").
func (e *CustomError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("error", e.message)
	for _, k := range e.sortedKeys() {
		ev.Interface(k, e.args[k])
	}
	if e.wrapped != nil {
		ev.Str("cause", e.wrapped.Error())
	}
}

// Log attaches err to ev. A CustomError anywhere in the chain is spread into
// separate fields, anything else goes through Err.
func Log(ev *zerolog.Event, err error) *zerolog.Event {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ev.EmbedObject(ce)
	}
	return ev.Err(err)
}

func (e *CustomError) sortedKeys() []string {
	keys := make([]string, 0, len(e.args))
	for k := range e.args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// fullErrorString builds the error string in the format:
// "{msg: <message>, args: <args>, wrappedError: {<wrapped error>}}".
// Arguments are printed in key order.
func (e *CustomError) fullErrorString() string {
	var builder strings.Builder

	builder.WriteString("{msg: ")
	builder.WriteString(e.message)

	if len(e.args) > 0 {
		parts := make([]string, 0, len(e.args))
		for _, k := range e.sortedKeys() {
			parts = append(parts, fmt.Sprintf("%s:%v", k, e.args[k]))
		}
		builder.WriteString(", args: map[" + strings.Join(parts, " ") + "]")
	}

	if e.wrapped != nil {
		var wrappedErr *CustomError
		if errors.As(e.wrapped, &wrappedErr) {
			builder.WriteString(", wrappedError: " + wrappedErr.fullErrorString())
		} else {
			builder.WriteString(fmt.Sprintf(", wrappedError: {%v}", e.wrapped.Error()))
		}
	}

	builder.WriteString("}")

	return builder.String()
}
