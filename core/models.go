// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// ExactMatchScore is the sentinel score carried by results found through
// literal keyword matching rather than embedding comparison.
const ExactMatchScore float32 = 1.0

// ID is a unique identifier for catalog entries and cached embeddings.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// SynonymGroup is a set of mutually interchangeable strings.
// The first member is the group's canonical form.
type SynonymGroup []string

// Canonical returns the first member of the group, or "" for an empty group.
func (g SynonymGroup) Canonical() string {
	if len(g) == 0 {
		return ""
	}
	return g[0]
}

// RawRecord is the fixed shape produced by the corpus loader: one phrase and
// its topic labels in source order, regardless of how many topic columns the
// upstream table had.
type RawRecord struct {
	Phrase string
	Topics []string
	Source string // Where the record came from (path or URL), for logging
	Row    int    // 1-based data row within Source
}

// CatalogEntry is one searchable unit of the corpus index.
// Entries are immutable once an index has been published.
type CatalogEntry struct {
	Id               ID
	DisplayPhrase    string    // Original text shown to the user
	NormalizedPhrase string    // Canonical token sequence, used only for matching
	Topics           []string  // Topic labels in source order
	Vector           []float32 // Unit-length embedding of NormalizedPhrase
	Ordinal          int       // Corpus insertion order
}

// MatchResult is a single search hit.
type MatchResult struct {
	Score         float32
	DisplayPhrase string
	Topics        []string
	Exact         bool // Found by keyword matching; Score is a sentinel
}
