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


package storage

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// CacheEntry is the stored form of one cached embedding. Model and Text are
// kept alongside the vector so a hash collision on the key is detectable.
type CacheEntry struct {
	Model  string
	Text   string
	Vector []float32
}

// cacheEntryMUS encodes a CacheEntry as
// Model (string), Text (string), len(Vector) (varint), Vector (raw float32s).
type cacheEntryMUS struct{}

func (cacheEntryMUS) Size(e CacheEntry) (size int) {
	size = ord.String.Size(e.Model)
	size += ord.String.Size(e.Text)
	size += varint.Uint64.Size(uint64(len(e.Vector)))
	for _, f := range e.Vector {
		size += raw.Float32.Size(f)
	}
	return size
}

func (cacheEntryMUS) Marshal(e CacheEntry, bs []byte) (n int) {
	n = ord.String.Marshal(e.Model, bs)
	n += ord.String.Marshal(e.Text, bs[n:])
	n += varint.Uint64.Marshal(uint64(len(e.Vector)), bs[n:])
	for _, f := range e.Vector {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func (cacheEntryMUS) Unmarshal(bs []byte) (e CacheEntry, n int, err error) {
	var n1 int
	e.Model, n1, err = ord.String.Unmarshal(bs)
	n += n1
	if err != nil {
		return
	}
	e.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	length, n1, err := varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	// Each float32 takes four bytes; reject lengths the buffer cannot hold.
	if length > uint64(len(bs)-n)/4 {
		err = ErrTruncatedData
		return
	}
	e.Vector = make([]float32, length)
	for i := range e.Vector {
		e.Vector[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

// CacheEntryMUS is the serializer for CacheEntry.
var CacheEntryMUS = cacheEntryMUS{}

// MarshalCacheEntry serializes a CacheEntry to bytes.
func MarshalCacheEntry(entry *CacheEntry) []byte {
	buf := make([]byte, CacheEntryMUS.Size(*entry))
	CacheEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalCacheEntry deserializes a CacheEntry from bytes.
func UnmarshalCacheEntry(data []byte) (*CacheEntry, error) {
	entry, n, err := CacheEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}
	return &entry, nil
}
