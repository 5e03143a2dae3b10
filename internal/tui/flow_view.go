package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/flowsem/internal/diag"
	"github.com/kingrea/flowsem/internal/flow"
	"github.com/kingrea/flowsem/internal/flow/resolver"
)

var (
	sectionTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	selectedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	typeLabelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	okTextStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	warnTextStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	errorTextStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	detailTextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
)

// flowItem is a resolved flow shown in the main list.
type flowItem struct {
	flow     flow.Flow
	errors   int
	warnings int
}

func (i flowItem) Title() string { return i.flow.Name }

func (i flowItem) Description() string {
	desc := fmt.Sprintf("%d operation(s) · %d connection(s)", len(i.flow.Operations), len(i.flow.Connections))
	if i.errors > 0 || i.warnings > 0 {
		desc += fmt.Sprintf(" · %d error(s), %d warning(s)", i.errors, i.warnings)
	}
	return desc
}

func (i flowItem) FilterValue() string { return i.flow.Name }

func buildFlowItems(result resolver.Result) []list.Item {
	items := make([]list.Item, 0, len(result.File.Flows))
	for _, f := range result.File.Flows {
		item := flowItem{flow: f}
		for _, d := range result.Diagnostics {
			if d.Flow != f.Name {
				continue
			}
			switch d.Severity {
			case diag.SeverityError:
				item.errors++
			case diag.SeverityWarning:
				item.warnings++
			}
		}
		items = append(items, item)
	}
	return items
}

type detailSection int

const (
	sectionOperations detailSection = iota
	sectionConnections
	sectionDiagnostics
	sectionCount
)

func (s detailSection) String() string {
	switch s {
	case sectionConnections:
		return "CONNECTIONS"
	case sectionDiagnostics:
		return "DIAGNOSTICS"
	default:
		return "OPERATIONS"
	}
}

// flowDetail renders one flow. The operations section keeps a cursor so the
// port pairs of the selected operation can be shown.
type flowDetail struct {
	flow        flow.Flow
	diagnostics []diag.Diagnostic
	section     detailSection
	selection   int
}

func newFlowDetail(f flow.Flow, ds []diag.Diagnostic) flowDetail {
	return flowDetail{flow: f, diagnostics: ds}
}

func (d *flowDetail) nextSection() {
	d.section = (d.section + 1) % sectionCount
}

func (d *flowDetail) moveSelection(delta int) {
	if len(d.flow.Operations) == 0 {
		d.selection = 0
		return
	}
	d.selection += delta
	if d.selection < 0 {
		d.selection = 0
	}
	if d.selection >= len(d.flow.Operations) {
		d.selection = len(d.flow.Operations) - 1
	}
}

func (d flowDetail) View(width int) string {
	tabs := make([]string, 0, sectionCount)
	for s := detailSection(0); s < sectionCount; s++ {
		if s == d.section {
			tabs = append(tabs, selectedStyle.Render("["+s.String()+"]"))
		} else {
			tabs = append(tabs, detailTextStyle.Render(" "+s.String()+" "))
		}
	}
	lines := []string{
		sectionTitleStyle.Render(fmt.Sprintf("Flow %s", d.flow.Name)) + detailTextStyle.Render(fmt.Sprintf("  @%d", d.flow.SrcPos)),
		boundaryLine(d.flow),
		strings.Join(tabs, " "),
		"",
	}
	switch d.section {
	case sectionConnections:
		lines = append(lines, d.connectionLines()...)
	case sectionDiagnostics:
		lines = append(lines, d.diagnosticLines()...)
	default:
		lines = append(lines, d.operationLines()...)
	}
	return lipgloss.NewStyle().MaxWidth(max(20, width)).Render(strings.Join(lines, "\n"))
}

func boundaryLine(f flow.Flow) string {
	if len(f.InPorts) == 0 && len(f.OutPorts) == 0 {
		return detailTextStyle.Render("no flow ports")
	}
	return detailTextStyle.Render(fmt.Sprintf("in: %s · out: %s", portList(f.InPorts), portList(f.OutPorts)))
}

func (d flowDetail) operationLines() []string {
	if len(d.flow.Operations) == 0 {
		return []string{detailTextStyle.Render("No operations.")}
	}
	var lines []string
	for i, op := range d.flow.Operations {
		cursor := "  "
		name := op.Name
		if i == d.selection {
			cursor = "> "
			name = selectedStyle.Render(name)
		}
		lines = append(lines, fmt.Sprintf("%s%s %s", cursor, name, typeLabelStyle.Render(op.Type)))
		if i != d.selection {
			continue
		}
		lines = append(lines, detailTextStyle.Render(fmt.Sprintf("    in: %s", portList(op.InPorts))))
		lines = append(lines, detailTextStyle.Render(fmt.Sprintf("    out: %s", portList(op.OutPorts))))
		for _, pair := range op.PortPairs {
			marker := ""
			if pair.IsLast {
				marker = " (last)"
			}
			lines = append(lines, detailTextStyle.Render(fmt.Sprintf("    pair %s -> %s%s", pairPort(pair.InPort), pairPort(pair.OutPort), marker)))
		}
	}
	return lines
}

func (d flowDetail) connectionLines() []string {
	if len(d.flow.Connections) == 0 {
		return []string{detailTextStyle.Render("No connections.")}
	}
	lines := make([]string, 0, len(d.flow.Connections))
	for _, c := range d.flow.Connections {
		lines = append(lines, renderConnection(c))
	}
	return lines
}

func (d flowDetail) diagnosticLines() []string {
	if len(d.diagnostics) == 0 {
		return []string{okTextStyle.Render("No diagnostics for this flow.")}
	}
	return strings.Split(strings.TrimRight(diag.Render(d.diagnostics, true), "\n"), "\n")
}

func renderConnection(c flow.Connection) string {
	from := endpointLabel(c.FromOp, c.FromPort)
	to := endpointLabel(c.ToOp, c.ToPort)
	arrow := " -> "
	if c.DataType != "" {
		label := c.DataType
		if !c.ShowDataType {
			label += "*"
		}
		arrow = " -[" + typeLabelStyle.Render(label) + "]-> "
	}
	return fmt.Sprintf("%s%s%s %s", from, arrow, to, detailTextStyle.Render(fmt.Sprintf("@%d", c.SrcPos)))
}

func endpointLabel(op string, port flow.PortData) string {
	if op == "" {
		return "<flow>." + port.Key()
	}
	return op + "." + port.Key()
}

func portList(ports []flow.PortData) string {
	if len(ports) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(ports))
	for _, p := range ports {
		keys = append(keys, p.Key())
	}
	return strings.Join(keys, ", ")
}

func pairPort(p flow.PortData) string {
	if p.IsZero() {
		return "-"
	}
	return p.Key()
}
