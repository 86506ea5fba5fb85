package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/phrasematch/core"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTopK         = 5
	DefaultThreshold    = float32(0.5)
	DefaultEmbedTimeout = 10 * time.Second
)

// Searcher composes the ranker, the keyword matcher and the merger into a
// single query operation over an Index.
type Searcher struct {
	encoder      QueryEncoder
	topK         int
	threshold    float32
	rule         KeywordRule
	merge        MergeOptions
	embedTimeout time.Duration
	logger       *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithTopK sets the maximum number of semantic results. Must be positive.
func WithTopK(k int) Option {
	return func(s *Searcher) error {
		if k <= 0 {
			return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidOption, k)
		}
		s.topK = k
		return nil
	}
}

// WithThreshold sets the minimum cosine similarity. Must be within [0, 1].
func WithThreshold(threshold float32) Option {
	return func(s *Searcher) error {
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("%w: threshold must be within [0,1], got %v", ErrInvalidOption, threshold)
		}
		s.threshold = threshold
		return nil
	}
}

// WithKeywordRule sets the exact-match qualification rule.
func WithKeywordRule(rule KeywordRule) Option {
	return func(s *Searcher) error {
		if rule.Bound <= 0 {
			return fmt.Errorf("%w: short query bound must be positive, got %d", ErrInvalidOption, rule.Bound)
		}
		if rule.Unit != UnitChars && rule.Unit != UnitTokens {
			return fmt.Errorf("%w: unknown length unit %q", ErrInvalidOption, rule.Unit)
		}
		s.rule = rule
		return nil
	}
}

// WithExactScore sets the sentinel score of exact-only results. Must be within (0, 1].
func WithExactScore(score float32) Option {
	return func(s *Searcher) error {
		if score <= 0 || score > 1 {
			return fmt.Errorf("%w: exact score must be within (0,1], got %v", ErrInvalidOption, score)
		}
		s.merge.ExactScore = score
		return nil
	}
}

// WithMaxExact caps the number of exact-only results. Zero means unlimited.
func WithMaxExact(n int) Option {
	return func(s *Searcher) error {
		if n < 0 {
			return fmt.Errorf("%w: max exact must not be negative, got %d", ErrInvalidOption, n)
		}
		s.merge.MaxExact = n
		return nil
	}
}

// WithEmbedTimeout bounds the query encoding call. Zero disables the bound.
func WithEmbedTimeout(timeout time.Duration) Option {
	return func(s *Searcher) error {
		if timeout < 0 {
			return fmt.Errorf("%w: embed timeout must not be negative", ErrInvalidOption)
		}
		s.embedTimeout = timeout
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(encoder QueryEncoder, opts ...Option) (*Searcher, error) {
	if encoder == nil {
		return nil, ErrEncoderRequired
	}

	s := &Searcher{
		encoder:      encoder,
		topK:         DefaultTopK,
		threshold:    DefaultThreshold,
		rule:         DefaultKeywordRule(),
		merge:        MergeOptions{ExactScore: core.ExactMatchScore},
		embedTimeout: DefaultEmbedTimeout,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search answers query against idx. The result is empty, not nil, when
// nothing matched. An error means the query could not be served, typically
// a core.ErrEncodingFailure.
func (s *Searcher) Search(ctx context.Context, idx *Index, query string) ([]core.MatchResult, error) {
	return s.SearchWithMonitor(ctx, idx, query, nil)
}

// SearchWithMonitor is Search with a monitor receiving callbacks at each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, idx *Index, query string, monitor SearchMonitor) ([]core.MatchResult, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	normalized := idx.Normalizer().Normalize(query)
	monitor.AfterNormalization(normalized)
	if normalized == "" {
		results := []core.MatchResult{}
		monitor.Finish(results)
		return results, nil
	}

	var semantic []core.MatchResult
	var exact []KeywordHit

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		encodeCtx, cancel := s.withEmbedTimeout(gctx)
		defer cancel()

		var err error
		semantic, err = rankNormalized(encodeCtx, s.encoder, normalized, idx, s.topK, s.threshold)
		return err
	})
	g.Go(func() error {
		exact = keywordMatchNormalized(normalized, idx, s.rule)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("error ranking query", "query", query, "err", err)
		return nil, err
	}

	monitor.AfterSemanticRanking(semantic)
	monitor.AfterKeywordMatch(exact)

	results := Merge(semantic, exact, s.merge)
	s.logger.Debug("search complete",
		"query", query, "normalized", normalized,
		"semantic", len(semantic), "exact", len(exact), "results", len(results))
	monitor.Finish(results)

	return results, nil
}

func (s *Searcher) withEmbedTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.embedTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.embedTimeout)
}
