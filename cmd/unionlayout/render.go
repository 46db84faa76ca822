package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/wippyai/unionlayout/layout"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB"))

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

var planHeaders = []string{"VARIANT", "FIELD", "TYPE", "REGION", "OFFSET", "SLOTS", "POINTER"}

// renderPlan renders the plan summary and its offset table. Styles are only
// applied when color is set.
func renderPlan(p *layout.Plan, color bool) string {
	style := func(s lipgloss.Style) lipgloss.Style {
		if color {
			return s
		}
		return lipgloss.NewStyle()
	}

	var b strings.Builder
	b.WriteString(style(titleStyle).Render(p.Schema().Name))
	b.WriteString(" ")
	b.WriteString(p.Signature())
	b.WriteString("\n\n")

	opts := p.Options()
	fmt.Fprintf(&b, "strategy:      %s\n", opts.Strategy)
	fmt.Fprintf(&b, "storage class: %s\n", opts.StorageClass)
	fmt.Fprintf(&b, "word width:    %d\n", opts.WordWidth)
	fmt.Fprintf(&b, "footprint:     %d slots (tail from %d)\n", p.Footprint(), p.TailStart())
	fmt.Fprintf(&b, "head words:    %d\n", p.HeadWords())
	fmt.Fprintf(&b, "dynamic:       %t\n", p.IsDynamic())
	fmt.Fprintf(&b, "fingerprint:   %s\n\n", style(dimStyle).Render(p.FingerprintHex()))

	var rows [][]string
	for _, v := range p.Variants() {
		if len(v.Fields) == 0 {
			rows = append(rows, []string{v.Name, "", "", v.Region.String(), fmt.Sprint(v.Start), "0", ""})
			continue
		}
		rows = append(rows, variantRows(v)...)
	}
	b.WriteString(renderTable(rows, color))
	return b.String()
}

func renderTable(rows [][]string, color bool) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(planHeaders...).
		Rows(rows...)
	if color {
		t = t.BorderStyle(dimStyle).StyleFunc(func(row, col int) lipgloss.Style {
			cell := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return headerStyle.Padding(0, 1)
			case col == 0:
				return nameStyle.Padding(0, 1)
			}
			return cell
		})
	} else {
		t = t.StyleFunc(func(row, col int) lipgloss.Style {
			return lipgloss.NewStyle().Padding(0, 1)
		})
	}
	return t.String()
}
