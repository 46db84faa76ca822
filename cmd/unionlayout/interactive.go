package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/unionlayout/codec"
	"github.com/wippyai/unionlayout/errors"
	"github.com/wippyai/unionlayout/layout"
	"github.com/wippyai/unionlayout/schema"
	"github.com/wippyai/unionlayout/value"
)

var (
	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

type modelState int

const (
	stateSelectVariant modelState = iota
	stateInputFields
	stateShowResult
)

type interactiveModel struct {
	err      error
	plan     *layout.Plan
	enc      *codec.Encoder
	result   string
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

type encodedMsg struct {
	err    error
	result string
}

func newInteractiveModel(plan *layout.Plan) *interactiveModel {
	return &interactiveModel{
		plan:  plan,
		enc:   codec.NewEncoder(plan.WordWidth()),
		state: stateSelectVariant,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputFields {
				return m, tea.Quit
			}

		case "up":
			if m.state == stateSelectVariant && m.selected > 0 {
				m.selected--
			}

		case "down":
			if m.state == stateSelectVariant && m.selected < m.plan.NumVariants()-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectVariant:
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.encode
				}
				m.state = stateInputFields
				return m, nil

			case stateInputFields:
				return m, m.encode

			case stateShowResult:
				m.reset()
			}

		case "tab":
			if m.state == stateInputFields && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			if m.state != stateSelectVariant {
				m.reset()
			}
		}

	case encodedMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputFields {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) reset() {
	m.state = stateSelectVariant
	m.inputs = nil
	m.result = ""
	m.err = nil
}

func (m *interactiveModel) prepareInputs() {
	v := &m.plan.Schema().Variants[m.selected]
	m.inputs = make([]textinput.Model, len(v.Fields))
	for i, f := range v.Fields {
		ti := textinput.New()
		ti.Placeholder = f.Type.String()
		ti.Prompt = f.Name + ": "
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

// encode parses each input as a YAML scalar or sequence, builds the selected
// variant and encodes it. Empty inputs take the field's zero value.
func (m *interactiveModel) encode() tea.Msg {
	s := m.plan.Schema()
	v := &s.Variants[m.selected]

	native := make(map[string]any, len(m.inputs))
	for i, input := range m.inputs {
		text := strings.TrimSpace(input.Value())
		if text == "" {
			continue
		}
		var x any
		if err := yaml.Unmarshal([]byte(text), &x); err != nil {
			return encodedMsg{err: errors.WithPath(errors.ParseFailed("field value", err), v.Name, v.Fields[i].Name)}
		}
		native[v.Fields[i].Name] = x
	}

	fields, err := value.FieldsFromNative(v, native)
	if err != nil {
		return encodedMsg{err: err}
	}
	u, err := value.FromParts(s, m.selected, fields)
	if err != nil {
		return encodedMsg{err: err}
	}
	buf, err := m.enc.Encode(u)
	if err != nil {
		return encodedMsg{err: err}
	}
	return encodedMsg{result: formatWords(buf, m.plan.WordWidth())}
}

// formatWords renders an encoding one word per line.
func formatWords(buf []byte, w int) string {
	var b strings.Builder
	for off := 0; off < len(buf); off += w {
		end := min(off+w, len(buf))
		fmt.Fprintf(&b, "%4d  %s\n", off, hex.EncodeToString(buf[off:end]))
	}
	return b.String()
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Union Inspector"))
	b.WriteString(" ")
	b.WriteString(m.plan.Schema().Name)
	b.WriteString(" ")
	b.WriteString(dimStyle.Render(m.plan.Strategy().String()))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectVariant:
		b.WriteString("Select a variant:\n\n")
		variants := m.plan.Schema().Variants
		for i := range variants {
			v := &variants[i]
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + v.Name + "(" + fieldList(v) + ")"))
			} else {
				b.WriteString("  " + nameStyle.Render(v.Name) + "(" + typeStyle.Render(fieldList(v)) + ")")
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("↑/↓ select • enter edit • q quit"))

	case stateInputFields:
		vl, _ := m.plan.Variant(m.selected)
		b.WriteString(renderTable(variantRows(vl), true))
		b.WriteString("\n\n")
		for _, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("tab next field • enter encode • esc back"))

	case stateShowResult:
		name := m.plan.Schema().Variants[m.selected].Name
		b.WriteString(fmt.Sprintf("Encoding of %s:\n\n", nameStyle.Render(name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func fieldList(v *schema.Variant) string {
	parts := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		parts[i] = f.Type.String() + " " + f.Name
	}
	return strings.Join(parts, ", ")
}

func runInteractive(plan *layout.Plan) error {
	p := tea.NewProgram(newInteractiveModel(plan), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
