// Package corpus loads catalog records from tabular sources.
//
// A source is a local path or an HTTP(S) URL naming a CSV, TSV or XLSX
// table. The first row is the header: one column holds the phrase, and every
// column whose header starts with the topic prefix holds a topic label.
// Sources are read in order; a failing source is logged and skipped, and
// loading fails only when no source could be read.
package corpus
