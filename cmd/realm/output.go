package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sagarc03/realm"
	"github.com/sagarc03/realm/filesystem"
)

// Formatter formats command results for output.
type Formatter interface {
	FormatInfo(w io.Writer, info realm.Info) error
	FormatFrogs(w io.Writer, page FrogPage) error
	FormatRealms(w io.Writer, entries []filesystem.Entry) error
}

// FrogItem is one stored frog with its object id.
type FrogItem struct {
	ID   string `json:"id" yaml:"id"`
	Frog `yaml:",inline"`
}

// FrogPage is one page of frogs.
type FrogPage struct {
	Items      []FrogItem `json:"items" yaml:"items"`
	NextCursor string     `json:"next_cursor,omitempty" yaml:"next_cursor,omitempty"`
}

func newFrogPage(res realm.Results[Frog]) FrogPage {
	page := FrogPage{
		Items:      make([]FrogItem, 0, len(res.Items)),
		NextCursor: res.NextCursor,
	}
	for _, obj := range res.Items {
		page.Items = append(page.Items, FrogItem{ID: string(obj.ID), Frog: obj.Value})
	}
	return page
}

// NewFormatter returns the formatter for an output format name.
func NewFormatter(format string) (Formatter, error) {
	switch format {
	case "", "text":
		return &HumanFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	case "yaml":
		return &YAMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

func getFormatter(cmd *cobra.Command) (Formatter, error) {
	format, _ := cmd.Flags().GetString("output")
	return NewFormatter(format)
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct{}

// FormatInfo formats realm info as human-readable text.
func (f *HumanFormatter) FormatInfo(w io.Writer, info realm.Info) error {
	_, _ = fmt.Fprintf(w, "Name:           %s\n", info.Name)
	switch {
	case info.InMemory:
		_, _ = fmt.Fprintf(w, "Location:       in memory\n")
	case info.Path != "":
		_, _ = fmt.Fprintf(w, "Path:           %s (%s)\n", info.Path, formatSize(info.Size))
	}
	_, _ = fmt.Fprintf(w, "Backend:        %s\n", info.Backend)
	_, _ = fmt.Fprintf(w, "Schema version: %d\n", info.SchemaVersion)

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "%-20s  %10s\n", "CLASS", "OBJECTS")
	_, _ = fmt.Fprintf(w, "%s  %s\n", strings.Repeat("-", 20), strings.Repeat("-", 10))
	for _, c := range info.Classes {
		_, _ = fmt.Fprintf(w, "%-20s  %10d\n", c.Name, c.Count)
	}

	return nil
}

// FormatFrogs formats a page of frogs as a table.
func (f *HumanFormatter) FormatFrogs(w io.Writer, page FrogPage) error {
	if len(page.Items) == 0 {
		_, _ = fmt.Fprintln(w, "No frogs found")
		return nil
	}

	// Calculate column widths
	maxNameLen := 4 // "NAME"
	for i := range page.Items {
		if len(page.Items[i].Name) > maxNameLen {
			maxNameLen = len(page.Items[i].Name)
		}
	}
	if maxNameLen > 40 {
		maxNameLen = 40
	}

	_, _ = fmt.Fprintf(w, "%-*s  %5s  %-20s  %s\n", maxNameLen, "NAME", "AGE", "SPECIES", "ID")
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", 5), strings.Repeat("-", 20), strings.Repeat("-", 36))

	for i := range page.Items {
		item := &page.Items[i]
		name := item.Name
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}
		species := "-"
		if item.Species != nil {
			species = *item.Species
		}
		_, _ = fmt.Fprintf(w, "%-*s  %5d  %-20s  %s\n", maxNameLen, name, item.Age, species, item.ID)
	}

	_, _ = fmt.Fprintf(w, "\n%d frog(s)\n", len(page.Items))

	if page.NextCursor != "" {
		_, _ = fmt.Fprintf(w, "Next page: use --cursor %q\n", page.NextCursor)
	}

	return nil
}

// FormatRealms formats realm files as a table.
func (f *HumanFormatter) FormatRealms(w io.Writer, entries []filesystem.Entry) error {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "No realms found")
		return nil
	}

	maxNameLen := 4 // "NAME"
	for _, e := range entries {
		maxNameLen = max(maxNameLen, len(e.Name))
	}

	_, _ = fmt.Fprintf(w, "%-*s  %10s  %s\n", maxNameLen, "NAME", "SIZE", "MODIFIED")
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", 10), strings.Repeat("-", 19))
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%-*s  %10s  %s\n", maxNameLen, e.Name, formatSize(e.Size), e.ModTime.Format("2006-01-02 15:04:05"))
	}

	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatInfo formats realm info as JSON.
func (f *JSONFormatter) FormatInfo(w io.Writer, info realm.Info) error {
	return writeJSON(w, info)
}

// FormatFrogs formats a page of frogs as JSON.
func (f *JSONFormatter) FormatFrogs(w io.Writer, page FrogPage) error {
	return writeJSON(w, page)
}

// FormatRealms formats realm files as JSON.
func (f *JSONFormatter) FormatRealms(w io.Writer, entries []filesystem.Entry) error {
	return writeJSON(w, realmEntries(entries))
}

// YAMLFormatter outputs YAML.
type YAMLFormatter struct{}

// FormatInfo formats realm info as YAML.
func (f *YAMLFormatter) FormatInfo(w io.Writer, info realm.Info) error {
	return writeYAML(w, info)
}

// FormatFrogs formats a page of frogs as YAML.
func (f *YAMLFormatter) FormatFrogs(w io.Writer, page FrogPage) error {
	return writeYAML(w, page)
}

// FormatRealms formats realm files as YAML.
func (f *YAMLFormatter) FormatRealms(w io.Writer, entries []filesystem.Entry) error {
	return writeYAML(w, realmEntries(entries))
}

type realmEntry struct {
	Name     string `json:"name" yaml:"name"`
	Size     int64  `json:"size_bytes" yaml:"size_bytes"`
	Modified string `json:"modified" yaml:"modified"`
}

func realmEntries(entries []filesystem.Entry) []realmEntry {
	out := make([]realmEntry, len(entries))
	for i, e := range entries {
		out[i] = realmEntry{
			Name:     e.Name,
			Size:     e.Size,
			Modified: e.ModTime.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
