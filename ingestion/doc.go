// Package ingestion builds searchable corpus indexes from raw catalog records.
//
// The Builder turns each record into one or more catalog entries:
//   - Records with a blank phrase are skipped
//   - Topic labels are trimmed, blanks dropped and consecutive duplicates collapsed
//   - Phrases with slash-separated alternatives yield one entry per alternative
//   - Every phrase is normalized and embedded
//
// Embedding runs in fixed-size batches on a worker pool, and each distinct
// normalized phrase is encoded once. A batch that still fails after retries
// is logged and its entries are skipped; the build only fails when no entry
// survives.
package ingestion
