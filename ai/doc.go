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

// Package ai provides the embedding provider abstraction used by phrasematch.
//
// The matching engine treats the embedding model as a black box reached
// through the Embedder interface: a string maps to a fixed-length vector such
// that semantically similar strings have high cosine similarity. Model
// choice, batching and hardware acceleration live behind that interface.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Deterministic test double for unit testing without external services
//
// # Constructor Return Type Pattern
//
// Public production constructors (openai.NewEmbedder) return the ai.Embedder
// interface. Test utility constructors (mock.NewMockEmbedder) return concrete
// types so tests can inject behavior and assert on call counts.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithModel("text-embedding-3-small"))
//	embedder, err := openai.NewEmbedder(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	vector, err := embedder.EmbedText(ctx, "утеряна сим-карта")
package ai
