// Package internal holds helpers shared by the realm storage backends.
package internal

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const cursorVersion = "v1"

// EncodeCursor encodes the id of the last row of a page as an opaque cursor.
func EncodeCursor(lastID string) string {
	data := cursorVersion + "|" + lastID
	return base64.URLEncoding.EncodeToString([]byte(data))
}

// DecodeCursor decodes a pagination cursor back to the id it resumes after.
// An empty cursor decodes to an empty id.
func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("decode cursor: invalid encoding: %w", err)
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 || parts[0] != cursorVersion {
		return "", fmt.Errorf("decode cursor: invalid format")
	}

	if parts[1] == "" {
		return "", fmt.Errorf("decode cursor: empty id")
	}

	if _, err := uuid.Parse(parts[1]); err != nil {
		return "", fmt.Errorf("decode cursor: invalid id: %w", err)
	}

	return parts[1], nil
}

// EscapeLikePattern escapes special LIKE characters (%, _, \) to prevent SQL injection.
func EscapeLikePattern(pattern string) string {
	pattern = strings.ReplaceAll(pattern, `\`, `\\`)
	pattern = strings.ReplaceAll(pattern, `%`, `\%`)
	pattern = strings.ReplaceAll(pattern, `_`, `\_`)
	return pattern
}

// QuoteIdentifier safely quotes a SQL identifier
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
