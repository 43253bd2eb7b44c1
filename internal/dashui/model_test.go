package dashui

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/awardboard/internal/dataset"
	"github.com/verte-zerg/awardboard/internal/model"
)

func sampleDataset() dataset.Dataset {
	return dataset.New("programs.csv", []model.Record{
		{Dept: "Health", Code: "N1", Title: "Nursing", Award: "A.S.", Years: map[string]int{
			"2019-20": 20, "2020-21": 22, "2021-22": 18, "2022-23": 25, "2023-24": 30,
		}},
		{Dept: "Health", Code: "R7", Title: "Radiology Tech", Award: "Certificate", Years: map[string]int{
			"2019-20": 0, "2020-21": 0, "2021-22": 1, "2022-23": 0, "2023-24": 0,
		}},
		{Dept: "Arts", Code: "D2", Title: "Design", Award: "A.A.", Years: map[string]int{
			"2019-20": 5, "2020-21": 5, "2021-22": 5, "2022-23": 5, "2023-24": 5,
		}},
		{Dept: "Arts", Code: "D2", Title: "Design Studio", Award: "Certificate", Years: map[string]int{
			"2019-20": 4, "2023-24": 15,
		}},
	})
}

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	ds := sampleDataset()
	return NewModel(Options{
		Source:    ds.Source,
		Load:      func(context.Context) (dataset.Dataset, error) { return ds, nil },
		ExportDir: t.TempDir(),
		Log:       quietLogger(),
	})
}

func readyModel(t *testing.T) *Model {
	t.Helper()
	m := newTestModel(t)
	m.Update(m.loadCmd()())
	m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	require.Equal(t, stateReady, m.state)
	return m
}

func press(m *Model, r rune) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return cmd
}

func keys(rows []model.ViewRow) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row.Key()
	}
	return out
}

func TestModelLoadsDataSet(t *testing.T) {
	m := readyModel(t)

	assert.Equal(t, []string{"R7#1", "D2#3", "D2#2", "N1#0"}, keys(m.Rows()))
	p := m.Params()
	assert.Equal(t, "2019-20", p.From)
	assert.Equal(t, "2023-24", p.To)
	assert.Equal(t, []string{model.All, "Arts", "Health"}, m.depts)

	view := m.View()
	assert.Contains(t, view, "Programs")
	assert.Contains(t, view, "Rec Deact")
	assert.Contains(t, view, "Radiology Tech")
}

func TestModelShowsLoadFailure(t *testing.T) {
	m := newTestModel(t)
	m.Update(loadedMsg{err: errors.New("connection refused")})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})

	assert.Equal(t, stateFailed, m.state)
	assert.Contains(t, m.View(), "Failed to load data: connection refused")
	assert.Empty(t, m.Rows())
}

func TestModelEmptyDataSet(t *testing.T) {
	m := newTestModel(t)
	m.Update(loadedMsg{ds: dataset.New("empty.csv", nil)})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})

	assert.Equal(t, stateEmpty, m.state)
	assert.Contains(t, m.View(), "No programs in data set.")
}

func TestModelLoadingIgnoresViewKeys(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	press(m, 'f')

	assert.False(t, m.Params().FlaggedOnly)
	assert.Contains(t, m.View(), "Loading programs.csv...")
}

func TestModelKeysDriveParams(t *testing.T) {
	m := readyModel(t)

	press(m, 'f')
	assert.True(t, m.Params().FlaggedOnly)
	assert.Equal(t, []string{"R7#1", "D2#3"}, keys(m.Rows()))
	press(m, 'f')
	assert.Len(t, m.Rows(), 4)

	press(m, 'o')
	assert.True(t, m.Params().Desc)
	assert.Equal(t, "N1#0", m.Rows()[0].Key())

	press(m, 's')
	assert.Equal(t, model.SortAvgPerYear, m.Params().SortKey)
	press(m, 's')
	assert.Equal(t, model.SortKey("2019-20"), m.Params().SortKey)

	press(m, 'n')
	assert.Equal(t, 10, m.Params().TopN)

	press(m, 'd')
	assert.Equal(t, "Arts", m.Params().Dept)
	assert.Len(t, m.Rows(), 2)
	press(m, 'a')
	assert.Equal(t, "A.A.", m.Params().Award)
	assert.Equal(t, []string{"D2#2"}, keys(m.Rows()))
}

func TestModelRangeKeys(t *testing.T) {
	m := readyModel(t)

	press(m, '[')
	assert.Equal(t, "2019-20", m.Params().From)

	press(m, ']')
	press(m, '{')
	p := m.Params()
	assert.Equal(t, "2020-21", p.From)
	assert.Equal(t, "2022-23", p.To)
	assert.Equal(t, []string{"2020-21", "2021-22", "2022-23"}, m.visible)

	for _, row := range m.Rows() {
		if row.Key() == "R7#1" {
			assert.Equal(t, 1, row.TotalRange)
			assert.InDelta(t, 1.0/3.0, row.AvgPerYear, 1e-9)
			assert.True(t, row.RecDeact)
		}
	}
}

func TestModelExport(t *testing.T) {
	m := readyModel(t)
	press(m, 'x')

	path := filepath.Join(m.exportDir, "programs-view.csv")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "DEPT,STATE CONTROL NUMBER,PROGRAM TITLE"))
	assert.True(t, strings.HasPrefix(lines[1], "Health,R7,Radiology Tech,Certificate,1,0.20,Yes"))
	assert.Equal(t, "Exported 4 rows to "+path, m.notice)
	assert.Contains(t, m.View(), "Exported 4 rows")
}

func TestModelFilterForm(t *testing.T) {
	m := readyModel(t)

	press(m, '/')
	require.True(t, m.filterMode)
	assert.Equal(t, model.All, m.filterInputs[fieldDept].Value())
	assert.Equal(t, "2019-20", m.filterInputs[fieldFrom].Value())
	assert.Equal(t, model.All, m.filterInputs[fieldTop].Value())

	m.filterInputs[fieldDept].SetValue("arts")
	m.filterInputs[fieldTop].SetValue("1")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.filterMode)
	p := m.Params()
	assert.Equal(t, "Arts", p.Dept)
	assert.Equal(t, 1, p.TopN)
	assert.Equal(t, []string{"D2#3"}, keys(m.Rows()))
}

func TestModelFilterFormRejectsBadTop(t *testing.T) {
	m := readyModel(t)
	press(m, '/')
	m.filterInputs[fieldTop].SetValue("-3")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, m.filterMode)
	assert.NotEmpty(t, m.filterError)
	assert.Equal(t, 0, m.Params().TopN)

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.filterMode)
	assert.Empty(t, m.filterError)
}

func TestModelFilterTyping(t *testing.T) {
	m := readyModel(t)
	press(m, '/')
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, fieldQuery, m.filterIndex)
	for _, r := range "RADIO" {
		press(m, r)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "RADIO", m.Params().Query)
	assert.Equal(t, []string{"R7#1"}, keys(m.Rows()))
}

func TestModelDetailTab(t *testing.T) {
	m := readyModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, tabDetail, m.activeTab)
	view := m.View()
	assert.Contains(t, view, "Radiology Tech")
	assert.Contains(t, view, "Rec Deact (last 5y)")
	assert.Contains(t, view, "5y total 1 & avg 0.2 (<15, <3)")
	assert.Contains(t, view, "Completions by year")
}

func TestModelQuit(t *testing.T) {
	m := readyModel(t)
	cmd := press(m, 'q')
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestNextChoice(t *testing.T) {
	choices := []string{model.All, "Arts", "Health"}
	assert.Equal(t, "Arts", nextChoice(choices, model.All))
	assert.Equal(t, "Arts", nextChoice(choices, ""))
	assert.Equal(t, model.All, nextChoice(choices, "Health"))
	assert.Equal(t, model.All, nextChoice(nil, "x"))
}

func TestMatchChoice(t *testing.T) {
	choices := []string{model.All, "Arts", "Health"}
	assert.Equal(t, "Health", matchChoice(choices, " health "))
	assert.Equal(t, model.All, matchChoice(choices, ""))
	assert.Equal(t, "Music", matchChoice(choices, "Music"))
}
