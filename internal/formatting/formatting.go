// Package formatting renders diff logs and wire payloads for terminal
// output.
package formatting

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"ecsboss/internal/ecs"
	"ecsboss/internal/structure"
)

// RenderDiffs writes the diff log as a table. An empty log renders a short
// note instead of an empty table.
func RenderDiffs(out io.Writer, diffs []ecs.Diff) {
	if len(diffs) == 0 {
		fmt.Fprintf(out, "%s\n", text.FgYellow.Sprint("No changes"))
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("CONTAINER"),
		text.FgHiCyan.Sprint("FIELD"),
		text.FgHiCyan.Sprint("OLD"),
		text.FgHiCyan.Sprint("NEW"),
	})
	for _, diff := range diffs {
		container := diff.Container
		if container == "" {
			container = "-"
		}
		t.AppendRow(table.Row{
			container,
			diff.Field,
			renderValue(diff.OldValue),
			renderValue(diff.Value),
		})
	}
	t.Render()
}

// RenderPayload writes a wire structure as indented JSON, for showing the
// service-create payload the tool refuses to submit on its own.
func RenderPayload(out io.Writer, payload structure.Structure) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	fmt.Fprintf(out, "%s\n", data)
	return nil
}

// renderValue flattens a diff value for one table cell. Environment diffs
// carry full mappings, rendered as sorted name=value lines.
func renderValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "-"
	case map[string]string:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		sort.Strings(names)
		lines := make([]string, 0, len(names))
		for _, name := range names {
			lines = append(lines, fmt.Sprintf("%s=%s", name, v[name]))
		}
		return strings.Join(lines, "\n")
	default:
		return fmt.Sprintf("%v", v)
	}
}
