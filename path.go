package goconstruct

import (
	"strconv"
	"strings"
)

// pointerPrefix prepends one segment to a JSON Pointer. Names are escaped
// per RFC 6901 ('~' -> '~0', '/' -> '~1').
func pointerPrefix(seg any, rest string) string {
	var s string
	switch v := seg.(type) {
	case int:
		s = strconv.Itoa(v)
	case string:
		if v == "" {
			return rest
		}
		s = strings.ReplaceAll(strings.ReplaceAll(v, "~", "~0"), "/", "~1")
	default:
		return rest
	}
	if rest == "" || rest == "/" {
		return "/" + s
	}
	return "/" + s + rest
}

// ParsePath splits a '/'-separated context path into lookup keys. Segments
// made of digits become indices; "_" walks to the parent scope.
//
//	ParsePath("_/len") // []any{"_", "len"}
//	ParsePath("0")     // []any{0}
func ParsePath(p string) []any {
	var out []any
	for _, part := range strings.Split(p, "/") {
		if part == "" {
			continue
		}
		if n, err := strconv.Atoi(part); err == nil && n >= 0 {
			out = append(out, n)
			continue
		}
		out = append(out, strings.ReplaceAll(strings.ReplaceAll(part, "~1", "/"), "~0", "~"))
	}
	return out
}
