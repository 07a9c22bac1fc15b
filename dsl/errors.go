package dsl

import (
	"fmt"

	goconstruct "github.com/reoring/goconstruct"
)

func mismatch(format string, args ...any) error {
	return goconstruct.Errorf(goconstruct.CodeShapeMismatch, format, args...)
}

func missingValue() error {
	return goconstruct.NewError(goconstruct.CodeShapeMismatch, "missing value")
}

func indeterminate(what string) error {
	return goconstruct.NewError(goconstruct.CodeIndeterminate, what+" has no static size")
}

func schemaError(format string, args ...any) *goconstruct.Error {
	return goconstruct.Errorf(goconstruct.CodeSchema, format, args...)
}

// describe renders a value for hints without dumping large buffers.
func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case []byte:
		if len(x) > 16 {
			return fmt.Sprintf("%d bytes %x...", len(x), x[:16])
		}
		return fmt.Sprintf("bytes %x", x)
	case string:
		return fmt.Sprintf("%q", x)
	}
	return fmt.Sprintf("%v", v)
}

// atOffset stamps the reader offset on errors raised by this package.
func atOffset(err error, off int) error {
	if e, ok := goconstruct.AsError(err); ok && e.Offset < 0 {
		cp := *e
		cp.Offset = int64(off)
		return &cp
	}
	return err
}
