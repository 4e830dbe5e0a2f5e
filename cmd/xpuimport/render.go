package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// renderReport formats a report. With color off the output is plain ASCII
// so it can be piped or compared in tests.
func renderReport(rep *report, color bool) string {
	var b strings.Builder

	opts := rep.opts
	header := fmt.Sprintf("%s: %s -> %s", opts.kind, opts.source, opts.state)
	if color {
		header = titleStyle.Render(header)
	}
	b.WriteString(header)
	b.WriteString("\n")
	fmt.Fprintf(&b, "ownership: %s  keep: %v  legacy: %v  cleanup: %s\n\n",
		rep.ownership, opts.keep, opts.legacy, opts.cleanup)

	b.WriteString(deviceTable(rep, color))
	b.WriteString("\n")

	if len(rep.calls) > 0 {
		b.WriteString("\ncalls:\n")
		for i, op := range rep.calls {
			line := fmt.Sprintf("%3d  %s", i+1, op)
			if color {
				line = funcStyle.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if rep.err != nil {
		b.WriteString("\n")
		b.WriteString(paint(errorStyle, color, "error: "+rep.err.Error()))
		b.WriteString("\n")
		return b.String()
	}

	if rep.linked {
		fmt.Fprintf(&b, "\nlinked: image replaced, bundle %s\n", rep.bundle)
	}
	if opts.kernel != "" {
		b.WriteString("\n")
		b.WriteString(paint(resultStyle, color, fmt.Sprintf("%s(%s) = %s",
			opts.kernel, joinUints(opts.args), joinUints(rep.results))))
		b.WriteString("\n")
	}
	return b.String()
}

func deviceTable(rep *report, color bool) string {
	t := table.New().Headers("DEVICE", "BEFORE", "ACTION", "AFTER")
	if color {
		t = t.Border(lipgloss.RoundedBorder()).
			BorderStyle(typeStyle).
			StyleFunc(func(row, col int) lipgloss.Style {
				switch {
				case row == table.HeaderRow:
					return selectedStyle.Padding(0, 1)
				case col == 2:
					return funcStyle.Padding(0, 1)
				}
				return lipgloss.NewStyle().Padding(0, 1)
			})
	} else {
		t = t.Border(lipgloss.ASCIIBorder()).
			StyleFunc(func(row, col int) lipgloss.Style {
				return lipgloss.NewStyle().Padding(0, 1)
			})
	}

	for _, r := range rep.rows {
		action := r.action.String()
		if r.plan != nil {
			action = "reject"
		}
		after := r.after.String()
		if !r.done && rep.err != nil {
			after = "-"
		}
		t.Row(fmt.Sprintf("%d", r.index), r.before.String(), action, after)
	}
	return t.String()
}

func paint(s lipgloss.Style, color bool, text string) string {
	if !color {
		return text
	}
	return s.Render(text)
}

func joinUints(vs []uint64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}
