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


// Package search provides hybrid semantic and keyword search over a
// catalog of reference phrases.
//
// The Searcher combines two matching paths that share one Normalizer:
//   - Semantic ranking by cosine similarity of unit-length embeddings,
//     filtered by a threshold and truncated to top_k
//   - Whole-word keyword matching for short queries, which compensates for
//     the weakness of embeddings on single words and abbreviations
//
// Both paths run concurrently and are merged: semantic results first in
// score order, then exact-only hits carrying a sentinel score.
package search
