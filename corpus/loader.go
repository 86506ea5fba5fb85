package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/poiesic/phrasematch/core"
)

const (
	DefaultPhraseColumn = "phrase"
	DefaultTopicPrefix  = "topics"
	defaultHTTPTimeout  = 30 * time.Second
	maxSourceBytes      = 64 << 20
)

// SourceReport describes the outcome of loading one source.
type SourceReport struct {
	Source  string
	Records int
	Skipped int
	Err     error
}

// Report summarizes a Load call.
type Report struct {
	Sources []SourceReport
}

// Loaded returns the number of sources that loaded.
func (r Report) Loaded() int {
	n := 0
	for _, s := range r.Sources {
		if s.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the number of sources that could not be loaded.
func (r Report) Failed() int {
	return len(r.Sources) - r.Loaded()
}

// Loader reads catalog records from local files or HTTP(S) URLs holding
// CSV, TSV or XLSX tables. Whatever the upstream layout, each record comes
// out as one phrase plus its topic labels in column order.
type Loader struct {
	client       *http.Client
	phraseColumn string
	topicPrefix  string
	logger       *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHTTPClient sets the client used for remote sources.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *Loader) {
		if client != nil {
			l.client = client
		}
	}
}

// WithPhraseColumn sets the header of the phrase column (case-insensitive).
func WithPhraseColumn(name string) LoaderOption {
	return func(l *Loader) {
		if name != "" {
			l.phraseColumn = name
		}
	}
}

// WithTopicPrefix sets the header prefix of topic columns (case-insensitive).
func WithTopicPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		if prefix != "" {
			l.topicPrefix = prefix
		}
	}
}

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		client:       &http.Client{Timeout: defaultHTTPTimeout},
		phraseColumn: DefaultPhraseColumn,
		topicPrefix:  DefaultTopicPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	l.logger = l.logger.With("component", "corpus-loader")
	return l
}

// Load reads every source in order and concatenates their records. A source
// that fails is logged, reported and skipped. Load fails with
// core.ErrCorpusEmpty only when no source could be loaded.
func (l *Loader) Load(ctx context.Context, sources []string) ([]core.RawRecord, Report, error) {
	var report Report
	var records []core.RawRecord

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}

		loaded, skipped, err := l.LoadSource(ctx, source)
		report.Sources = append(report.Sources, SourceReport{
			Source:  source,
			Records: len(loaded),
			Skipped: skipped,
			Err:     err,
		})
		if err != nil {
			l.logger.Error("failed to load source", "source", source, "err", err)
			continue
		}
		l.logger.Info("loaded source", "source", source, "records", len(loaded), "skipped", skipped)
		records = append(records, loaded...)
	}

	if report.Loaded() == 0 {
		return nil, report, fmt.Errorf("%w: none of %d sources could be loaded", core.ErrCorpusEmpty, len(sources))
	}
	return records, report, nil
}

// LoadSource reads one source. Rows without a phrase are skipped and
// counted. Every error wraps ErrSourceUnavailable.
func (l *Loader) LoadSource(ctx context.Context, source string) ([]core.RawRecord, int, error) {
	format, err := DetectFormat(source)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	data, err := l.fetch(ctx, source)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, source, err)
	}

	rows, err := readRows(data, format)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, source, err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("%w: %s: empty table", ErrSourceUnavailable, source)
	}

	s, err := resolveSchema(rows[0], l.phraseColumn, l.topicPrefix)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, source, err)
	}

	records := make([]core.RawRecord, 0, len(rows)-1)
	skipped := 0
	for i, row := range rows[1:] {
		record := core.RawRecord{
			Phrase: cell(row, s.phrase),
			Source: source,
			Row:    i + 1,
		}
		for _, col := range s.topics {
			if topic := cell(row, col); topic != "" {
				record.Topics = append(record.Topics, topic)
			}
		}
		if err := core.ValidateRawRecord(&record); err != nil {
			l.logger.Debug("skipping row", "source", source, "row", record.Row, "err", err)
			skipped++
			continue
		}
		records = append(records, record)
	}
	return records, skipped, nil
}

func (l *Loader) fetch(ctx context.Context, source string) ([]byte, error) {
	if !isRemote(source) {
		return os.ReadFile(source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxSourceBytes {
		return nil, errors.New("source exceeds size limit")
	}
	return data, nil
}

func isRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
