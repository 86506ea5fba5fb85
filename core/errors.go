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

import "errors"

var (
	// ErrInvalidRecord indicates a RawRecord failed validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrEmptyPhrase indicates the phrase field is missing or blank.
	ErrEmptyPhrase = errors.New("phrase cannot be empty")

	// ErrEmptySynonymGroup indicates a synonym group has no usable members.
	ErrEmptySynonymGroup = errors.New("synonym group has no members")

	// ErrCorpusEmpty indicates no usable catalog entry could be produced.
	// Searching cannot proceed when this is returned.
	ErrCorpusEmpty = errors.New("corpus is empty")

	// ErrEncodingFailure indicates the embedding provider failed for an input.
	ErrEncodingFailure = errors.New("embedding failed")
)
