package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Imdraks/faxcloud-analyzer/internal/shared/testutil"
	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeExport(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		format    string
		wantFiles []string
	}{
		{"csv", []string{"march_entries.csv", "march_statistics.csv"}},
		{"xlsx", []string{"march_analysis.xlsx"}},
		{"json", []string{"march_analysis.json"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			in := writeExport(t, t.TempDir(), "march.csv", testutil.SampleExport())
			outDir := filepath.Join(t.TempDir(), "out")

			out, err := execute(t, "analyze", in, "--out", outDir, "--format", tt.format, "--workers", "2")
			require.NoError(t, err)
			assert.Contains(t, out, "march.csv")
			assert.Contains(t, out, "50%")

			for _, name := range tt.wantFiles {
				info, err := os.Stat(filepath.Join(outDir, name))
				require.NoError(t, err, name)
				assert.NotZero(t, info.Size())
			}
		})
	}
}

func TestAnalyze_JSONReport(t *testing.T) {
	in := writeExport(t, t.TempDir(), "march.csv", testutil.SampleExport())
	outDir := t.TempDir()

	_, err := execute(t, "analyze", in, "-o", outDir, "-f", "json")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "march_analysis.json"))
	require.NoError(t, err)
	var report domain.StoredReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, 2, report.Statistics.Total)
	assert.Equal(t, 1, report.Statistics.Errors)
}

func TestAnalyze_Directory(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "a.csv", testutil.SampleExport())
	writeExport(t, dir, "b.csv", testutil.CSVExport(testutil.Row("fax9", "carol", "SF", "0145678901", 2)))
	writeExport(t, dir, "readme.txt", "ignored")
	outDir := t.TempDir()

	out, err := execute(t, "analyze", dir, "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "a.csv")
	assert.Contains(t, out, "b.csv")
	assert.NotContains(t, out, "readme.txt")

	_, err = os.Stat(filepath.Join(outDir, "b_entries.csv"))
	assert.NoError(t, err)
}

func TestAnalyze_SameBaseName(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"north", "south"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, dir), 0755))
	}
	north := writeExport(t, filepath.Join(root, "north"), "jan.csv", testutil.SampleExport())
	south := writeExport(t, filepath.Join(root, "south"), "jan.csv",
		testutil.CSVExport(testutil.Row("fax9", "carol", "SF", "0145678901", 2)))
	outDir := t.TempDir()

	_, err := execute(t, "analyze", north, south, "--out", outDir, "-f", "json")
	require.NoError(t, err)

	totals := map[string]int{}
	for _, name := range []string{"north_jan_analysis.json", "south_jan_analysis.json"} {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err, name)
		var report domain.StoredReport
		require.NoError(t, json.Unmarshal(data, &report))
		totals[name] = report.Statistics.Total
	}
	assert.Equal(t, map[string]int{"north_jan_analysis.json": 2, "south_jan_analysis.json": 1}, totals)
}

func TestOutputStems(t *testing.T) {
	got := outputStems([]string{
		"/data/march.csv",
		"/a/jan.csv",
		"/b/jan.csv",
		"/a/jan.xlsx",
	})
	assert.Equal(t, map[string]string{
		"/data/march.csv": "march",
		"/a/jan.csv":      "a_jan",
		"/b/jan.csv":      "b_jan",
		"/a/jan.xlsx":     "a_jan_2",
	}, got)
}

func TestAnalyze_Failures(t *testing.T) {
	dir := t.TempDir()
	good := writeExport(t, dir, "good.csv", testutil.SampleExport())
	empty := writeExport(t, dir, "empty.csv", testutil.ExportHeader+"\n")

	out, err := execute(t, "analyze", good, empty, "--out", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
	assert.Contains(t, out, "good.csv")
	assert.Contains(t, out, "no data rows")

	_, err = execute(t, "analyze", good, "--format", "pdf")
	assert.ErrorContains(t, err, "unknown output format")

	_, err = execute(t, "analyze", filepath.Join(dir, "missing.csv"))
	assert.ErrorContains(t, err, "does not exist")

	_, err = execute(t, "analyze")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate", "0612345678", "0012345", "")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "33612345678")
	assert.Contains(t, lines[1], "true")
	assert.Contains(t, lines[2], "false")
	assert.Contains(t, lines[2], string(domain.ErrorKindWrongLength))
	assert.Contains(t, lines[3], string(domain.ErrorKindEmptyNumber))
}
