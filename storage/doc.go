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


// Package storage provides the storage abstraction layer for phrasematch.
//
// The only persisted state is the embedding cache: vectors computed for
// normalized catalog phrases, keyed by embedding model and phrase. The corpus
// itself is always reloaded from its sources, and query history is never
// stored.
//
// # Constructor Return Type Pattern
//
// Public constructors of backend packages return the storage interface:
//
//	cache, err := badger.NewEmbeddingCache(backend) // returns storage.EmbeddingCache
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// # Usage
//
// Open a persistent cache:
//
//	backend, err := badger.OpenBackend("/path/to/cache", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cache, err := badger.NewEmbeddingCache(backend)
//	defer cache.Close()
//
// Use in tests with in-memory storage:
//
//	cache, err := badger.NewMemoryCache()
//
// # Thread Safety
//
// All cache implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
