// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"
	"go.yaml.in/yaml/v3"
)

// WriteReport writes r as YAML to path, creating parent directories.
func WriteReport(r Report, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// FormatSummary prints one line per entry followed by the totals. The key
// column is padded by display width so CJK keys line up.
func FormatSummary(w io.Writer, r Report) {
	width := runewidth.StringWidth("KEY")
	for _, oc := range r.Outcomes {
		if n := runewidth.StringWidth(oc.Key); n > width {
			width = n
		}
	}

	fmt.Fprintf(w, "%s  %-8s  %s\n", runewidth.FillRight("KEY", width), "STATUS", "DETAIL")
	for _, oc := range r.Outcomes {
		fmt.Fprintf(w, "%s  %-8s  %s\n", runewidth.FillRight(oc.Key, width), oc.Status, detail(oc))
	}
	fmt.Fprintf(w, "\n%d resolved, %d kept (total: %d)\n", r.Resolved, r.Kept, r.Total())
}

func detail(oc Outcome) string {
	var parts []string
	if oc.Resolver != "" {
		parts = append(parts, "via "+oc.Resolver)
	} else if len(oc.Attempts) > 0 {
		names := make([]string, len(oc.Attempts))
		for i, a := range oc.Attempts {
			names[i] = a.Resolver
		}
		parts = append(parts, "tried "+strings.Join(names, ","))
	}
	if oc.Merge != nil {
		if oc.Merge.TypeChanged() {
			parts = append(parts, fmt.Sprintf("type %s->%s", oc.Merge.OriginalType, oc.Merge.ChosenType))
		}
		if n := len(oc.Merge.Conflicts); n > 0 {
			parts = append(parts, fmt.Sprintf("%d changed", n))
		}
	}
	if len(oc.Removed) > 0 {
		parts = append(parts, "dropped "+strings.Join(oc.Removed, ","))
	}
	return strings.Join(parts, "; ")
}
