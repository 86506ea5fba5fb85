package corpus

import "errors"

var (
	// ErrSourceUnavailable wraps every failure to fetch or parse one source.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrUnsupportedFormat is returned for sources that are not CSV, TSV or XLSX.
	ErrUnsupportedFormat = errors.New("unsupported source format")

	// ErrMissingPhraseColumn is returned when a table has no phrase column.
	ErrMissingPhraseColumn = errors.New("phrase column not found")

	// ErrMissingTopicColumns is returned when a table has no topic columns.
	ErrMissingTopicColumns = errors.New("topic columns not found")
)
