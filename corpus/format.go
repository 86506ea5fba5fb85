package corpus

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is a tabular source encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the format from the extension of a file path or of a
// URL path, ignoring any query string.
func DetectFormat(source string) (Format, error) {
	p := source
	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".csv":
		return FormatCSV, nil
	case ".tsv", ".tab":
		return FormatTSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, source)
}

// readRows decodes data into rows of cells, header first.
func readRows(data []byte, format Format) ([][]string, error) {
	switch format {
	case FormatCSV, FormatTSV:
		reader := csv.NewReader(bytes.NewReader(data))
		if format == FormatTSV {
			reader.Comma = '\t'
			reader.LazyQuotes = true
		}
		reader.FieldsPerRecord = -1
		return reader.ReadAll()
	case FormatXLSX:
		return readWorkbook(data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// readWorkbook returns the rows of the first sheet.
func readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}

// schema locates the phrase and topic columns of a header row.
type schema struct {
	phrase int
	topics []int
}

func resolveSchema(header []string, phraseColumn, topicPrefix string) (schema, error) {
	s := schema{phrase: -1}
	prefix := strings.ToLower(topicPrefix)
	for i, cell := range header {
		name := cleanCell(cell)
		switch {
		case s.phrase < 0 && strings.EqualFold(name, phraseColumn):
			s.phrase = i
		case name != "" && strings.HasPrefix(strings.ToLower(name), prefix):
			s.topics = append(s.topics, i)
		}
	}
	if s.phrase < 0 {
		return s, fmt.Errorf("%w: %q", ErrMissingPhraseColumn, phraseColumn)
	}
	if len(s.topics) == 0 {
		return s, fmt.Errorf("%w: prefix %q", ErrMissingTopicColumns, topicPrefix)
	}
	return s, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return cleanCell(row[i])
	}
	return ""
}
