package corpus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/phrasematch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = "\ufeffPhrase,Topics_1,Note,TOPICS 2\n" +
	"утеряна сим-карта,Блокировка СИМ,x,\n" +
	",Пусто,,\n" +
	"\"карта/карточка оплаты\",Платежи,,Карты\n" +
	"перевод денег\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellName, &row))
	}
	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		source string
		want   Format
		err    bool
	}{
		{"data.csv", FormatCSV, false},
		{"DATA.TSV", FormatTSV, false},
		{"/tmp/data1.xlsx", FormatXLSX, false},
		{"https://example.com/main/data1.xlsx?raw=true", FormatXLSX, false},
		{"https://example.com/export.csv", FormatCSV, false},
		{"notes.txt", "", true},
		{"no-extension", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got, err := DetectFormat(tt.source)
			if tt.err {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadSource_CSV(t *testing.T) {
	path := writeFile(t, "data.csv", sampleCSV)
	loader := NewLoader()

	records, skipped, err := loader.LoadSource(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped, "row without a phrase")
	require.Len(t, records, 3)

	assert.Equal(t, core.RawRecord{
		Phrase: "утеряна сим-карта",
		Topics: []string{"Блокировка СИМ"},
		Source: path,
		Row:    1,
	}, records[0])
	assert.Equal(t, "карта/карточка оплаты", records[1].Phrase)
	assert.Equal(t, []string{"Платежи", "Карты"}, records[1].Topics)
	assert.Equal(t, 3, records[1].Row)
	assert.Equal(t, "перевод денег", records[2].Phrase)
	assert.Empty(t, records[2].Topics, "short rows have no topics")
}

func TestLoadSource_TSV(t *testing.T) {
	path := writeFile(t, "data.tsv", "phrase\ttopics\nоплата \"картой\"\tПлатежи\n")

	records, _, err := NewLoader().LoadSource(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "оплата \"картой\"", records[0].Phrase)
}

func TestLoadSource_XLSX(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"phrase", "topics1", "topics2"},
		{"кредитная карта заблокирована", "Кредитки", ""},
		{"pay не работает", "Платежи", "Сервисы"},
	})

	records, skipped, err := NewLoader().LoadSource(context.Background(), path)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Кредитки"}, records[0].Topics)
	assert.Equal(t, []string{"Платежи", "Сервисы"}, records[1].Topics)
}

func TestLoadSource_CustomColumns(t *testing.T) {
	path := writeFile(t, "data.csv", "text,label_a,label_b\nоплата,A,B\n")

	records, _, err := NewLoader(WithPhraseColumn("TEXT"), WithTopicPrefix("label")).
		LoadSource(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"A", "B"}, records[0].Topics)
}

func TestLoadSource_Errors(t *testing.T) {
	tests := []struct {
		name    string
		source  func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "missing phrase column",
			source:  func(t *testing.T) string { return writeFile(t, "a.csv", "text,topics\nx,y\n") },
			wantErr: ErrMissingPhraseColumn,
		},
		{
			name:    "missing topic columns",
			source:  func(t *testing.T) string { return writeFile(t, "a.csv", "phrase,label\nx,y\n") },
			wantErr: ErrMissingTopicColumns,
		},
		{
			name:    "unsupported format",
			source:  func(t *testing.T) string { return writeFile(t, "a.txt", "phrase,topics\n") },
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "missing file",
			source:  func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.csv") },
			wantErr: os.ErrNotExist,
		},
		{
			name:   "empty table",
			source: func(t *testing.T) string { return writeFile(t, "a.csv", "") },
		},
		{
			name:   "corrupt workbook",
			source: func(t *testing.T) string { return writeFile(t, "a.xlsx", "not a zip") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewLoader().LoadSource(context.Background(), tt.source(t))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSourceUnavailable)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLoadSource_HTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data.csv":
			_, _ = w.Write([]byte("phrase,topics\nперевод денег,Переводы\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	loader := NewLoader(WithHTTPClient(server.Client()))

	t.Run("ok", func(t *testing.T) {
		records, _, err := loader.LoadSource(context.Background(), server.URL+"/data.csv")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "перевод денег", records[0].Phrase)
	})

	t.Run("not found", func(t *testing.T) {
		_, _, err := loader.LoadSource(context.Background(), server.URL+"/missing.csv")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSourceUnavailable)
		assert.Contains(t, err.Error(), "404")
	})
}

func TestLoad(t *testing.T) {
	good := writeFile(t, "good.csv", "phrase,topics\nоплата картой,Платежи\nперевод,Переводы\n")
	other := writeFile(t, "other.csv", "phrase,topics\nвклад,Вклады\n")
	bad := writeFile(t, "bad.csv", "phrase\nбез тем\n")
	ctx := context.Background()

	t.Run("failed sources are skipped", func(t *testing.T) {
		records, report, err := NewLoader().Load(ctx, []string{good, bad, other})
		require.NoError(t, err)

		require.Len(t, records, 3)
		assert.Equal(t, "оплата картой", records[0].Phrase)
		assert.Equal(t, "вклад", records[2].Phrase)

		assert.Equal(t, 2, report.Loaded())
		assert.Equal(t, 1, report.Failed())
		require.Len(t, report.Sources, 3)
		assert.ErrorIs(t, report.Sources[1].Err, ErrMissingTopicColumns)
		assert.Equal(t, 2, report.Sources[0].Records)
	})

	t.Run("no source loads", func(t *testing.T) {
		_, report, err := NewLoader().Load(ctx, []string{bad, "missing.csv"})
		assert.ErrorIs(t, err, core.ErrCorpusEmpty)
		assert.Equal(t, 2, report.Failed())
	})

	t.Run("no sources", func(t *testing.T) {
		_, _, err := NewLoader().Load(ctx, nil)
		assert.ErrorIs(t, err, core.ErrCorpusEmpty)
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, _, err := NewLoader().Load(cctx, []string{good})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
