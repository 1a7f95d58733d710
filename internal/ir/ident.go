package ir

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// checkIdent reports what is wrong with a model or table identifier, or ""
// when it is usable. Identifiers are opaque and stored byte for byte, so
// padded or non-NFC spellings are rejected rather than rewritten.
func checkIdent(s string) string {
	switch {
	case s == "":
		return "is required"
	case strings.TrimFunc(s, unicode.IsSpace) != s:
		return "must not have leading or trailing whitespace"
	case !norm.NFC.IsNormalString(s):
		return "must be in Unicode NFC form"
	}
	return ""
}
