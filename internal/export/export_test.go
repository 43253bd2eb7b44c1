package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/awardboard/internal/assess"
	"github.com/verte-zerg/awardboard/internal/dataset"
	"github.com/verte-zerg/awardboard/internal/model"
	"github.com/verte-zerg/awardboard/internal/query"
)

func sampleRows(t *testing.T) (dataset.Dataset, []model.ViewRow, []string) {
	t.Helper()
	ds := dataset.New("data/programs.csv", []model.Record{
		{Dept: "Health", Code: "N1", Title: `Nursing "RN", Day`, Award: "A.S.", Years: map[string]int{
			"2019-20": 20, "2020-21": 22, "2021-22": 18,
		}},
		{Dept: "Arts", Code: "D2", Title: "Design", Award: "Certificate", Years: map[string]int{
			"2019-20": 1, "2021-22": 2,
		}},
	})
	p := model.ViewParams{From: "2020-21", To: "2021-22", SortKey: model.SortTotalRange, Desc: true}
	rows := query.ComputeView(ds, p, assess.New(assess.DefaultThresholds()))
	return ds, rows, query.VisibleYears(ds, p)
}

func TestWrite(t *testing.T) {
	_, rows, visible := sampleRows(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rows, visible, Options{Delimiter: ','}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "DEPT,STATE CONTROL NUMBER,PROGRAM TITLE,AWARD TYPE,TOTAL (Range),AVG / yr,Rec Deact (last 5y),2020-21,2021-22", lines[0])
	assert.Equal(t, `Health,N1,"Nursing ""RN"", Day",A.S.,40,20.00,No,22,18`, lines[1])
	assert.Equal(t, "Arts,D2,Design,Certificate,2,1.00,Yes,0,2", lines[2])
}

func TestHeaderNamesAssessedWindow(t *testing.T) {
	visible := []string{"2022-23"}
	assert.Equal(t, "Rec Deact (last 3y)", Header(visible, 3)[6])
	assert.Equal(t, "Rec Deact (last 5y)", Header(visible, 0)[6])

	_, rows, visible := sampleRows(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rows, visible, Options{Window: 7}))
	header, _, _ := strings.Cut(buf.String(), "\n")
	assert.Equal(t, "DEPT,STATE CONTROL NUMBER,PROGRAM TITLE,AWARD TYPE,TOTAL (Range),AVG / yr,Rec Deact (last 7y),2020-21,2021-22", header)
}

func TestWriteRoundTripsYearColumns(t *testing.T) {
	_, rows, visible := sampleRows(t)
	for _, delim := range []rune{';', '|', '\t'} {
		t.Run(string(delim), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, rows, visible, Options{Delimiter: delim}))

			records, err := dataset.ParseTable(&buf, 0)
			require.NoError(t, err)
			require.Len(t, records, len(rows))
			for i, rec := range records {
				assert.Equal(t, rows[i].Dept, rec.Dept)
				assert.Equal(t, rows[i].Code, rec.Code)
				assert.Equal(t, rows[i].Title, rec.Title)
				assert.Equal(t, rows[i].Award, rec.Award)
				require.Len(t, rec.Years, len(visible))
				for _, label := range visible {
					assert.Equal(t, rows[i].Count(label), rec.Count(label), label)
				}
			}
		})
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "programs-view.csv", FileName("data/programs.csv"))
	assert.Equal(t, "completions-view.csv", FileName("https://example.org/files/completions.csv?v=2"))
	assert.Equal(t, "programs-view.csv", FileName(""))
}

func TestWriteFile(t *testing.T) {
	ds, rows, visible := sampleRows(t)
	path := filepath.Join(t.TempDir(), "out", FileName(ds.Source))
	require.NoError(t, WriteFile(path, rows, visible, Options{Delimiter: ','}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "DEPT,"))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}
