package realm

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxNameLength is the longest realm name accepted, in bytes.
const MaxNameLength = 255

// IsValidName validates that a realm name can be used as a file name.
// It checks that the name:
//   - is not empty, "." or ".."
//   - is at most MaxNameLength bytes
//   - does not contain path separators (/ or \)
//   - is valid UTF-8
//   - does not contain null bytes, control characters (< 0x20), DEL (0x7f), or whitespace
//
// Returns true if the name is valid, false otherwise.
func IsValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	if len(name) > MaxNameLength {
		return false
	}

	if strings.ContainsAny(name, `/\`) {
		return false
	}

	if !utf8.ValidString(name) {
		return false
	}

	for _, r := range name {
		if r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}
