package dashui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/awardboard/internal/model"
	"github.com/verte-zerg/awardboard/internal/query"
)

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Department: "),
		newFilterInput("Award type: "),
		newFilterInput("Search: "),
		newFilterInput("From (YYYY-YY): "),
		newFilterInput("To (YYYY-YY): "),
		newFilterInput("Top (number or all): "),
	}
	m.filterInputs[fieldQuery].Placeholder = "title, award, or code"
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromParams() {
	p := m.Params()
	dept := p.Dept
	if dept == "" {
		dept = model.All
	}
	award := p.Award
	if award == "" {
		award = model.All
	}
	m.filterInputs[fieldDept].SetValue(dept)
	m.filterInputs[fieldAward].SetValue(award)
	m.filterInputs[fieldQuery].SetValue(p.Query)
	m.filterInputs[fieldFrom].SetValue(p.From)
	m.filterInputs[fieldTo].SetValue(p.To)
	m.filterInputs[fieldTop].SetValue(query.FormatTopN(p.TopN))
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromParams()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.recompute()
		m.updateLayout()
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if count == 0 {
		return nil
	}
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

// applyFilter copies the form into the view parameters. Unknown years are
// accepted as typed; the range then falls back to every year.
func (m *Model) applyFilter() error {
	top, err := query.ParseTopN(m.filterInputs[fieldTop].Value())
	if err != nil {
		return err
	}
	m.params.Dept = matchChoice(m.depts, m.filterInputs[fieldDept].Value())
	m.params.Award = matchChoice(m.awards, m.filterInputs[fieldAward].Value())
	m.params.Query = strings.TrimSpace(m.filterInputs[fieldQuery].Value())
	m.params.TopN = top
	m.sel.From = strings.TrimSpace(m.filterInputs[fieldFrom].Value())
	m.sel.To = strings.TrimSpace(m.filterInputs[fieldTo].Value())
	return nil
}

// matchChoice returns the known choice equal to input ignoring case, or the
// trimmed input itself. Blank input selects All.
func matchChoice(choices []string, input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return model.All
	}
	for _, c := range choices {
		if strings.EqualFold(c, input) {
			return c
		}
	}
	return input
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	hints := []string{
		"Departments: " + strings.Join(m.depts, ", "),
		"Award types: " + strings.Join(m.awards, ", "),
	}
	if len(m.ds.Years) > 0 {
		hints = append(hints, "Years: "+m.ds.Years.First()+" to "+m.ds.Years.Final())
	}
	lines = append(lines, "")
	for _, hint := range hints {
		lines = append(lines, headerStyle.Render(truncateLine(hint, m.width)))
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}
