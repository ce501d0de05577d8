package table

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWorkbook(t *testing.T, path string, columns []string, rows ...[]string) {
	t.Helper()
	tbl := New(columns...)
	for _, cells := range rows {
		r := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(cells) {
				r[col] = cells[i]
			}
		}
		tbl.Rows = append(tbl.Rows, r)
	}
	require.NoError(t, tbl.Save(path))
}

func TestLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.xlsx")
	writeWorkbook(t, path,
		[]string{"Ticker", "URL"},
		[]string{"AAPL", "https://example.com/AAPL"},
		[]string{"MSFT", "https://example.com/MSFT"},
	)

	tbl, err := Load(path, ColTicker, ColURL)

	require.NoError(t, err)
	assert.Equal(t, []string{"Ticker", "URL"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "https://example.com/AAPL", tbl.Rows[0]["URL"])
	assert.Equal(t, "MSFT", tbl.Rows[1]["Ticker"])
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.xlsx"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_MissingRequiredColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.xlsx")
	writeWorkbook(t, path, []string{"Symbol", "Link"}, []string{"AAPL", "x"})

	_, err := Load(path, ColTicker, ColURL)

	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, ColTicker, missing.Column)
}

func TestLoadOrEmpty_MissingFile(t *testing.T) {
	tbl, err := LoadOrEmpty(filepath.Join(t.TempDir(), "absent.xlsx"), ColTicker)

	require.NoError(t, err)
	assert.Empty(t, tbl.Rows)
	assert.True(t, tbl.HasColumn(ColTicker))
}

func TestBackup_CreatesTimestampedCopy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tickers.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("workbook-bytes"), 0o644))

	orig := timeNow
	timeNow = func() time.Time {
		return time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	}
	defer func() { timeNow = orig }()

	backupPath, err := Backup(path)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tickers_backup_20260314_150926.xlsx"), backupPath)

	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, "workbook-bytes", string(data))
}

func TestBackup_NothingToBackUp(t *testing.T) {
	backupPath, err := Backup(filepath.Join(t.TempDir(), "absent.xlsx"))
	require.NoError(t, err)
	assert.Empty(t, backupPath)
}

func TestSave_NumericCellsSurviveReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	tbl := New("Ticker", "RSI_14")
	tbl.Rows = append(tbl.Rows, map[string]string{"Ticker": "AAPL", "RSI_14": "55.3"})
	require.NoError(t, tbl.Save(path))

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, reloaded.Rows, 1)
	assert.Equal(t, "AAPL", reloaded.Rows[0]["Ticker"])
	assert.Equal(t, "55.3", reloaded.Rows[0]["RSI_14"])
}
