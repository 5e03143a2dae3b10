package diag

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
)

// SeverityStyle returns the style used to label a severity.
func SeverityStyle(s Severity) lipgloss.Style {
	switch s {
	case SeverityError:
		return errorStyle
	case SeverityWarning:
		return warningStyle
	default:
		return infoStyle
	}
}

// Render formats diagnostics one per line. With color off the output is
// plain text.
func Render(ds []Diagnostic, color bool) string {
	if len(ds) == 0 {
		return ""
	}
	var b strings.Builder
	for _, d := range ds {
		b.WriteString(renderOne(d, color))
		b.WriteString("\n")
	}
	return b.String()
}

func renderOne(d Diagnostic, color bool) string {
	loc := d.File
	if loc == "" {
		loc = "<input>"
	}
	loc = fmt.Sprintf("%s:%d", loc, d.Pos)
	label := string(d.Severity)
	scope := ""
	if d.Flow != "" {
		scope = "flow " + d.Flow
		if d.Chain >= 0 {
			scope += fmt.Sprintf(" chain %d", d.Chain+1)
		}
		scope += ": "
	}
	detail := ""
	if d.Expected != "" || d.Actual != "" {
		detail = fmt.Sprintf(" (expected %q, got %q)", d.Expected, d.Actual)
	}
	if !color {
		return fmt.Sprintf("%s: %s: %s%s%s", loc, label, scope, d.Message, detail)
	}
	return fmt.Sprintf("%s: %s: %s%s%s",
		detailStyle.Render(loc),
		SeverityStyle(d.Severity).Render(label),
		scope,
		d.Message,
		detailStyle.Render(detail),
	)
}

// Summary returns a one-line count of errors and warnings.
func Summary(ds []Diagnostic) string {
	errs, warns := 0, 0
	for _, d := range ds {
		switch d.Severity {
		case SeverityError:
			errs++
		case SeverityWarning:
			warns++
		}
	}
	return fmt.Sprintf("%d error(s), %d warning(s)", errs, warns)
}
