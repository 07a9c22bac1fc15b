package goconstruct

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/goconstruct/cursor"
	"github.com/reoring/goconstruct/i18n"
)

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	CodeSchema         = "schema_definition"
	CodeUnderrun       = "underrun"
	CodeShapeMismatch  = "shape_mismatch"
	CodeNoMatchingCase = "no_matching_case"
	CodeCodec          = "codec"
	CodeEmbedConflict  = "embed_conflict"
	CodeIndeterminate  = "indeterminate_size"
	CodeValidation     = "validation"
)

// Sentinels for errors.Is. Matching compares codes only.
var (
	ErrSchema         = &Error{Code: CodeSchema}
	ErrUnderrun       = &Error{Code: CodeUnderrun}
	ErrShapeMismatch  = &Error{Code: CodeShapeMismatch}
	ErrNoMatchingCase = &Error{Code: CodeNoMatchingCase}
	ErrCodec          = &Error{Code: CodeCodec}
	ErrEmbedConflict  = &Error{Code: CodeEmbedConflict}
	ErrIndeterminate  = &Error{Code: CodeIndeterminate}
	ErrValidation     = &Error{Code: CodeValidation}
)

// Error is the single error type surfaced by parse, build and sizeof.
type Error struct {
	Code    string // One of the codes listed above.
	Path    string // JSON Pointer of the failing member (for example: /header/len).
	Message string
	Hint    string // Optional: concrete detail such as expected/found values.
	Offset  int64  // Byte offset in the input (-1 when unknown).
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"want":4, "have":2})
	// for i18n and observability.
	Params map[string]any
}

func (e *Error) Error() string {
	b := &strings.Builder{}
	b.WriteString(e.Code)
	if e.Path != "" {
		fmt.Fprintf(b, " at %s", e.Path)
	}
	switch {
	case e.Hint != "":
		fmt.Fprintf(b, ": %s", e.Hint)
	case e.Cause != nil:
		fmt.Fprintf(b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates an Error with a translated message and the given hint.
// kv are optional key/value pairs stored in Params.
func NewError(code, hint string, kv ...any) *Error {
	e := &Error{Code: code, Message: i18n.T(code, nil), Hint: hint, Offset: -1}
	if len(kv) > 1 {
		e.Params = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			e.Params[fmt.Sprint(kv[i])] = kv[i+1]
		}
	}
	return e
}

// Errorf is NewError with a formatted hint.
func Errorf(code, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// AsError extracts an *Error using errors.As internally.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of err, or "" when err is nil or foreign.
func CodeOf(err error) string {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// WithPath prefixes err's path with a field name (string) or index (int).
// Foreign errors are converted first.
func WithPath(err error, seg any) error {
	if err == nil {
		return nil
	}
	e := toError(err)
	out := *e
	out.Path = pointerPrefix(seg, e.Path)
	return &out
}

// toError normalizes any error into an *Error. Cursor underruns map to
// CodeUnderrun; everything else unknown becomes CodeCodec.
func toError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := AsError(err); ok {
		return e
	}
	var ue *cursor.UnderrunError
	if errors.As(err, &ue) {
		e := NewError(CodeUnderrun, ue.Error(), "want", ue.Want, "have", ue.Have)
		e.Offset = int64(ue.Offset)
		e.Cause = err
		return e
	}
	e := NewError(CodeCodec, err.Error())
	e.Cause = err
	return e
}
