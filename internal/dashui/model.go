// Package dashui provides the Bubble Tea completions dashboard.
package dashui

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/awardboard/internal/assess"
	"github.com/verte-zerg/awardboard/internal/dataset"
	"github.com/verte-zerg/awardboard/internal/export"
	"github.com/verte-zerg/awardboard/internal/model"
	"github.com/verte-zerg/awardboard/internal/query"
	"github.com/verte-zerg/awardboard/internal/years"
)

const (
	tabPrograms = iota
	tabDetail
)

type loadState int

const (
	stateLoading loadState = iota
	stateFailed
	stateEmpty
	stateReady
)

const (
	fieldDept = iota
	fieldAward
	fieldQuery
	fieldFrom
	fieldTo
	fieldTop
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	flagStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// LoadFunc fetches the data set.
type LoadFunc func(ctx context.Context) (dataset.Dataset, error)

// Options configures a dashboard Model.
type Options struct {
	Source    string
	Load      LoadFunc
	Assessor  *assess.Assessor
	Params    model.ViewParams
	ExportDir string
	Delimiter rune
	Log       logrus.FieldLogger
}

type loadedMsg struct {
	ds  dataset.Dataset
	err error
}

// Model implements the Bubble Tea dashboard UI.
type Model struct {
	source    string
	load      LoadFunc
	assessor  *assess.Assessor
	exportDir string
	delim     rune
	log       logrus.FieldLogger

	state   loadState
	errMsg  string
	notice  string
	spinner spinner.Model

	ds      dataset.Dataset
	params  model.ViewParams
	sel     years.Selection
	rows    []model.ViewRow
	visible []string
	depts   []string
	awards  []string

	tabs      []string
	activeTab int
	table     table.Model
	layout    tableLayout
	detail    viewport.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

type tableLayout struct {
	width    int
	height   int
	rowCount int
	colCount int
}

// NewModel constructs a dashboard model. Data is loaded by Init.
func NewModel(opts Options) *Model {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	a := opts.Assessor
	if a == nil {
		a = assess.New(assess.DefaultThresholds())
	}
	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = "."
	}
	m := &Model{
		source:    opts.Source,
		load:      opts.Load,
		assessor:  a,
		exportDir: exportDir,
		delim:     opts.Delimiter,
		log:       log,
		params:    opts.Params,
		sel:       years.Selection{From: opts.Params.From, To: opts.Params.To},
		tabs:      []string{"Programs", "Detail"},
		state:     stateLoading,
	}
	if m.params.SortKey == "" {
		m.params.SortKey = model.SortTotalRange
	}
	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))
	m.spinner.Style = noticeStyle
	m.detail = viewport.New(0, 0)
	m.table = buildTable(nil, nil, 0, 1)
	m.initInputs()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m *Model) loadCmd() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		if load == nil {
			return loadedMsg{err: fmt.Errorf("no data source configured")}
		}
		ds, err := load(context.Background())
		return loadedMsg{ds: ds, err: err}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.applyLoad(msg)
		return m, nil
	case spinner.TickMsg:
		if m.state != stateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if msg.String() == "q" {
			return m, tea.Quit
		}
		if m.state != stateReady {
			return m, nil
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l", "tab":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "/":
		return m.startFilter()
	case "s":
		m.params.SortKey = query.NextSortKey(m.params.SortKey, m.ds.Years)
		m.recompute()
	case "o":
		m.params.Desc = !m.params.Desc
		m.recompute()
	case "f":
		m.params.FlaggedOnly = !m.params.FlaggedOnly
		m.recompute()
	case "n":
		m.params.TopN = query.NextTopN(m.params.TopN)
		m.recompute()
	case "d":
		m.params.Dept = nextChoice(m.depts, m.params.Dept)
		m.recompute()
	case "a":
		m.params.Award = nextChoice(m.awards, m.params.Award)
		m.recompute()
	case "[":
		m.stepRange(&m.sel.From, -1)
	case "]":
		m.stepRange(&m.sel.From, 1)
	case "{":
		m.stepRange(&m.sel.To, -1)
	case "}":
		m.stepRange(&m.sel.To, 1)
	case "x":
		m.exportView()
	case "enter":
		if m.activeTab == tabPrograms && len(m.rows) > 0 {
			m.activeTab = tabDetail
			m.table.Blur()
			m.renderDetail()
			return m, tea.ClearScreen
		}
	case "g", "home":
		if m.activeTab == tabPrograms {
			m.table.GotoTop()
		} else {
			m.detail.GotoTop()
		}
	case "G", "end":
		if m.activeTab == tabPrograms {
			m.table.GotoBottom()
		} else {
			m.detail.GotoBottom()
		}
	default:
		var cmd tea.Cmd
		if m.activeTab == tabPrograms {
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// Rows returns the rows currently in view.
func (m *Model) Rows() []model.ViewRow {
	return m.rows
}

// Params returns the current view parameters, range included.
func (m *Model) Params() model.ViewParams {
	p := m.params
	p.From, p.To = m.sel.From, m.sel.To
	return p
}

func (m *Model) applyLoad(msg loadedMsg) {
	if msg.err != nil {
		m.state = stateFailed
		m.errMsg = msg.err.Error()
		m.log.WithError(msg.err).Error("Dashboard load failed")
		return
	}
	m.ds = msg.ds
	m.errMsg = ""
	if m.source == "" {
		m.source = msg.ds.Source
	}
	m.depts = query.Departments(m.ds.Records)
	m.awards = query.AwardTypes(m.ds.Records)
	m.sel.Sync(m.ds.Years)
	if len(m.ds.Records) == 0 {
		m.state = stateEmpty
		return
	}
	m.state = stateReady
	m.recompute()
	m.log.WithFields(logrus.Fields{
		"records": len(m.ds.Records),
		"years":   len(m.ds.Years),
	}).Debug("Dashboard ready")
}

// recompute re-runs the pipeline for the current parameters.
func (m *Model) recompute() {
	p := m.Params()
	m.visible = query.VisibleYears(m.ds, p)
	m.rows = query.ComputeView(m.ds, p, m.assessor)
	m.applyTable(true)
	m.renderDetail()
}

func (m *Model) stepRange(label *string, delta int) {
	*label = m.ds.Years.Step(*label, delta)
	m.recompute()
}

func (m *Model) exportView() {
	path := filepath.Join(m.exportDir, export.FileName(m.source))
	if err := export.WriteFile(path, m.rows, m.visible, export.Options{
		Delimiter: m.delim,
		Window:    m.assessor.Thresholds().Window,
	}); err != nil {
		m.notice = ""
		m.errMsg = err.Error()
		m.log.WithError(err).Error("Export failed")
		return
	}
	m.errMsg = ""
	m.notice = fmt.Sprintf("Exported %d rows to %s", len(m.rows), path)
	m.log.WithFields(logrus.Fields{"path": path, "rows": len(m.rows)}).Info("Exported view")
}

func (m *Model) selectedRow() (model.ViewRow, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.rows) {
		return model.ViewRow{}, false
	}
	return m.rows[idx], true
}

func nextChoice(choices []string, current string) string {
	if len(choices) == 0 {
		return model.All
	}
	for i, c := range choices {
		if c == current {
			return choices[(i+1)%len(choices)]
		}
	}
	if len(choices) > 1 {
		return choices[1]
	}
	return choices[0]
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && (m.notice != "" || (m.errMsg != "" && m.state == stateReady)) {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.detail.Width = m.width
	m.detail.Height = bodyHeight
	m.applyTable(false)
	m.renderDetail()
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabPrograms {
		m.table.Focus()
	} else {
		m.table.Blur()
		m.renderDetail()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	p := m.Params()
	dept := p.Dept
	if dept == "" {
		dept = model.All
	}
	award := p.Award
	if award == "" {
		award = model.All
	}
	span := "-"
	if len(m.visible) > 0 {
		span = m.visible[0] + ".." + m.visible[len(m.visible)-1]
	}
	order := "asc"
	if p.Desc {
		order = "desc"
	}
	flagged := "off"
	if p.FlaggedOnly {
		flagged = "on"
	}
	summary := fmt.Sprintf("dept=%s  award=%s  search=%q  range=%s  sort=%s %s  top=%s  flagged=%s",
		dept, award, strings.TrimSpace(p.Query), span, query.SortLabel(p.SortKey), order, query.FormatTopN(p.TopN), flagged)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Rows: up/down  Detail: enter  Settings: /  Dept: d  Award: a  Sort: s/o  Top: n  Flagged: f  From: [ ]  To: { }  Export: x  Quit: q"
	return headerStyle.Render(truncateLine(help, m.width))
}

func (m *Model) renderFilterHelp() string {
	return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel  ctrl+c: quit")
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return m.renderFilterHelp()
	}
	if m.state == stateReady && m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(truncateLine(m.errMsg, m.width))
	}
	if m.notice != "" {
		return m.renderHelp() + "\n" + noticeStyle.Render(truncateLine(m.notice, m.width))
	}
	return m.renderHelp()
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	switch m.state {
	case stateLoading:
		return fitLines(fmt.Sprintf("%s Loading %s...", m.spinner.View(), m.source), m.width, height)
	case stateFailed:
		return fitLines(errorStyle.Render("Failed to load data: "+m.errMsg)+"\n"+
			headerStyle.Render("Fix the source and restart. Quit: q"), m.width, height)
	case stateEmpty:
		return fitLines("No programs in data set.", m.width, height)
	}
	if m.activeTab == tabDetail {
		return fitLines(m.detail.View(), m.width, height)
	}
	cards := m.renderSummaryCards()
	tableView := "No programs match the current filters."
	if len(m.rows) > 0 {
		tableView = tableMutedStyle.Render(m.table.View())
	}
	return fitLines(cards+"\n"+tableView, m.width, height)
}

func (m *Model) renderSummaryCards() string {
	s := query.Summarize(m.rows)
	flagged := cardValueStyle.Render(strconv.Itoa(s.Flagged))
	if s.Flagged > 0 {
		flagged = flagStyle.Render(strconv.Itoa(s.Flagged))
	}
	cards := []string{
		metricCard("Programs", cardValueStyle.Render(strconv.Itoa(s.Programs))),
		metricCard("Rec Deact", flagged),
		metricCard("Total (range)", cardValueStyle.Render(strconv.Itoa(s.TotalRange))),
		metricCard("Avg / yr", cardValueStyle.Render(fmt.Sprintf("%.2f", s.AvgPerYear))),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), value)
	return cardStyle.Render(content)
}

func (m *Model) cardsHeight() int {
	return lipgloss.Height(m.renderSummaryCards())
}
