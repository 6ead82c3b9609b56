package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sagarc03/realm"
	"github.com/sagarc03/realm/filesystem"
)

func testInfo() realm.Info {
	return realm.Info{
		Name:          "frogs.realm",
		Path:          "/data/frogs.realm",
		Backend:       "sqlite",
		SchemaVersion: 2,
		Size:          2048,
		Classes:       []realm.ClassInfo{{Name: "Frog", Table: "class_frog", Count: 3}},
	}
}

func testPage() FrogPage {
	species := "Bufo bufo"
	return FrogPage{
		Items: []FrogItem{
			{ID: "0190f1a2-0000-7000-8000-000000000001", Frog: Frog{Name: "Kermit", Age: 3, Species: &species}},
			{ID: "0190f1a2-0000-7000-8000-000000000002", Frog: Frog{Name: "Gregory", Age: 1}},
		},
		NextCursor: "djF8YWJj",
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format string
		want   Formatter
	}{
		{format: "", want: &HumanFormatter{}},
		{format: "text", want: &HumanFormatter{}},
		{format: "json", want: &JSONFormatter{}},
		{format: "yaml", want: &YAMLFormatter{}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, err := NewFormatter(tt.format)
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}

	_, err := NewFormatter("xml")
	assert.Error(t, err)
}

func TestHumanFormatter_FormatInfo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&HumanFormatter{}).FormatInfo(&buf, testInfo()))

	output := buf.String()
	assert.Contains(t, output, "Name:           frogs.realm")
	assert.Contains(t, output, "/data/frogs.realm (2.0 KB)")
	assert.Contains(t, output, "Schema version: 2")
	assert.Contains(t, output, "Frog")
}

func TestHumanFormatter_FormatInfoInMemory(t *testing.T) {
	info := testInfo()
	info.Path = ""
	info.InMemory = true

	var buf bytes.Buffer
	require.NoError(t, (&HumanFormatter{}).FormatInfo(&buf, info))
	assert.Contains(t, buf.String(), "in memory")
}

func TestHumanFormatter_FormatFrogs(t *testing.T) {
	t.Run("page", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&HumanFormatter{}).FormatFrogs(&buf, testPage()))

		output := buf.String()
		assert.Contains(t, output, "NAME")
		assert.Contains(t, output, "Kermit")
		assert.Contains(t, output, "Bufo bufo")
		assert.Contains(t, output, "2 frog(s)")
		assert.Contains(t, output, `--cursor "djF8YWJj"`)
	})

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&HumanFormatter{}).FormatFrogs(&buf, FrogPage{}))
		assert.Equal(t, "No frogs found\n", buf.String())
	})
}

func TestHumanFormatter_FormatRealms(t *testing.T) {
	entries := []filesystem.Entry{
		{Name: "default.realm", Size: 4096, ModTime: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, (&HumanFormatter{}).FormatRealms(&buf, entries))

	output := buf.String()
	assert.Contains(t, output, "default.realm")
	assert.Contains(t, output, "4.0 KB")

	buf.Reset()
	require.NoError(t, (&HumanFormatter{}).FormatRealms(&buf, nil))
	assert.Equal(t, "No realms found\n", buf.String())
}

func TestJSONFormatter_FormatFrogs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).FormatFrogs(&buf, testPage()))

	var got struct {
		Items []struct {
			ID      string  `json:"id"`
			Name    string  `json:"name"`
			Age     int     `json:"age"`
			Species *string `json:"species"`
		} `json:"items"`
		NextCursor string `json:"next_cursor"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	require.Len(t, got.Items, 2)
	assert.Equal(t, "Kermit", got.Items[0].Name)
	assert.Equal(t, 3, got.Items[0].Age)
	assert.Nil(t, got.Items[1].Species)
	assert.Equal(t, "djF8YWJj", got.NextCursor)
}

func TestYAMLFormatter_FormatInfo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).FormatInfo(&buf, testInfo()))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "frogs.realm", got["name"])
	assert.Equal(t, 2, got["schema_version"])
	classes, ok := got["classes"].([]any)
	require.True(t, ok)
	assert.Len(t, classes, 1)
}

func TestYAMLFormatter_FormatFrogsInline(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).FormatFrogs(&buf, testPage()))

	output := buf.String()
	assert.Contains(t, output, "name: Kermit")
	assert.Contains(t, output, "species: Bufo bufo")
	assert.NotContains(t, output, "frog:")
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{bytes: 0, want: "0 B"},
		{bytes: 1023, want: "1023 B"},
		{bytes: 1024, want: "1.0 KB"},
		{bytes: 5 * 1024 * 1024, want: "5.0 MB"},
		{bytes: 3 * 1024 * 1024 * 1024, want: "3.0 GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSize(tt.bytes))
	}
}
