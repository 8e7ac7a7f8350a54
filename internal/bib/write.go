// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bib

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/delanoflipse/pretty-bib/pkg/types"
)

// ErrNoEntries is returned when BibTeX text holds no entries.
var ErrNoEntries = errors.New("no bibtex entries")

// Format controls serialization.
type Format struct {
	// Indent prefixes every field line.
	Indent string

	// BlockSeparator is written between entries.
	BlockSeparator string

	// MonthToInt rewrites month names ("jan", "January") as 1..12.
	MonthToInt bool
}

// DefaultFormat is two-space indentation, a blank line between entries, and
// numeric months.
var DefaultFormat = Format{
	Indent:         "  ",
	BlockSeparator: "\n\n",
	MonthToInt:     true,
}

var months = map[string]string{
	"jan": "1", "january": "1",
	"feb": "2", "february": "2",
	"mar": "3", "march": "3",
	"apr": "4", "april": "4",
	"may": "5",
	"jun": "6", "june": "6",
	"jul": "7", "july": "7",
	"aug": "8", "august": "8",
	"sep": "9", "sept": "9", "september": "9",
	"oct": "10", "october": "10",
	"nov": "11", "november": "11",
	"dec": "12", "december": "12",
}

// MonthInt returns the month number for a month name, or v unchanged when
// it is not one.
func MonthInt(v string) string {
	if n, ok := months[strings.ToLower(strings.TrimSpace(v))]; ok {
		return n
	}
	return v
}

// Write serializes entries to w in order.
func Write(w io.Writer, entries []types.Entry, f Format) error {
	for i, e := range entries {
		if i > 0 {
			if _, err := io.WriteString(w, f.BlockSeparator); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, FormatEntry(e, f)); err != nil {
			return err
		}
	}
	if len(entries) > 0 {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}

// FormatEntry renders one entry without a trailing newline.
func FormatEntry(e types.Entry, f Format) string {
	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s", e.Type, e.Key)
	for _, fld := range e.Fields {
		value := fld.Value
		if f.MonthToInt && strings.EqualFold(fld.Key, "month") {
			value = MonthInt(value)
		}
		fmt.Fprintf(&b, ",\n%s%s = %s", f.Indent, fld.Key, quote(value))
	}
	b.WriteString("\n}")
	return b.String()
}

// quote wraps v in braces unless it is a bare integer.
func quote(v string) string {
	if v != "" && isDigits(v) {
		return v
	}
	return "{" + v + "}"
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// WriteFile writes entries to path through a temporary file renamed into
// place on success.
func WriteFile(path string, entries []types.Entry, f Format) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".prettybib-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	writeErr := Write(tmp, entries, f)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// OutputPath derives the output file name: "refs.bib" becomes
// "refs.out.bib"; any other name gets ".out" appended.
func OutputPath(in string) string {
	if strings.HasSuffix(in, ".bib") {
		return strings.TrimSuffix(in, ".bib") + ".out.bib"
	}
	return in + ".out"
}
