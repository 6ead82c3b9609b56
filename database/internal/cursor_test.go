package internal_test

import (
	"encoding/base64"
	"testing"

	"github.com/google/uuid"
	"github.com/sagarc03/realm/database/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCursor_DecodeCursor_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   string
	}{
		{
			name: "random v4 id",
			id:   uuid.NewString(),
		},
		{
			name: "time ordered v7 id",
			id:   uuid.Must(uuid.NewV7()).String(),
		},
		{
			name: "nil id",
			id:   uuid.Nil.String(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			encoded := internal.EncodeCursor(tt.id)
			assert.NotEmpty(t, encoded, "encoded cursor should not be empty")

			decoded, err := internal.DecodeCursor(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestDecodeCursor_EmptyString(t *testing.T) {
	t.Parallel()

	id, err := internal.DecodeCursor("")
	require.NoError(t, err)
	assert.Empty(t, id, "empty cursor should return empty id")
}

func TestDecodeCursor_InvalidBase64(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cursor string
	}{
		{
			name:   "not base64",
			cursor: "not-valid-base64!!!",
		},
		{
			name:   "wrong padding",
			cursor: "aGVsbG8===",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := internal.DecodeCursor(tt.cursor)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "invalid encoding")
		})
	}
}

func TestDecodeCursor_InvalidFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		rawData     string
		errContains string
	}{
		{
			name:        "missing pipe separator",
			rawData:     "0190b3a8-0000-7000-8000-000000000000",
			errContains: "invalid format",
		},
		{
			name:        "unknown version",
			rawData:     "v9|0190b3a8-0000-7000-8000-000000000000",
			errContains: "invalid format",
		},
		{
			name:        "empty id after pipe",
			rawData:     "v1|",
			errContains: "empty id",
		},
		{
			name:        "id is not a uuid",
			rawData:     "v1|file.txt",
			errContains: "invalid id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			encoded := base64.URLEncoding.EncodeToString([]byte(tt.rawData))

			_, err := internal.DecodeCursor(encoded)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestQuoteIdentifier(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"class_frog"`, internal.QuoteIdentifier("class_frog"))
	assert.Equal(t, `"a""b"`, internal.QuoteIdentifier(`a"b`))
}

func TestEscapeLikePattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "no special characters",
			input:    "simple/path/file.txt",
			expected: "simple/path/file.txt",
		},
		{
			name:     "percent sign",
			input:    "100%complete",
			expected: `100\%complete`,
		},
		{
			name:     "underscore",
			input:    "file_name.txt",
			expected: `file\_name.txt`,
		},
		{
			name:     "backslash",
			input:    `path\to\file`,
			expected: `path\\to\\file`,
		},
		{
			name:     "all special characters",
			input:    `50%_done\today`,
			expected: `50\%\_done\\today`,
		},
		{
			name:     "multiple consecutive special chars",
			input:    "%%__\\\\",
			expected: `\%\%\_\_\\\\`,
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "only special characters",
			input:    `%_\`,
			expected: `\%\_\\`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := internal.EscapeLikePattern(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}
