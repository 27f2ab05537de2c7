//  Copyright (c) 2018 Couchbase, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// 		http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fielddata

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/blevesearch/vellum"
)

// SegmentBuilder collects the terms and postings of a segment and encodes
// them in the segment file format.
type SegmentBuilder struct {
	// field name -> term -> docs
	fields map[string]map[string]*roaring.Bitmap

	numDocs  uint64
	compress bool
}

// BuilderOption configures a SegmentBuilder.
type BuilderOption func(*SegmentBuilder)

// CompressPostings snappy compresses every postings list.
func CompressPostings(on bool) BuilderOption {
	return func(b *SegmentBuilder) {
		b.compress = on
	}
}

// NewSegmentBuilder returns an empty SegmentBuilder.
func NewSegmentBuilder(opts ...BuilderOption) *SegmentBuilder {
	rv := &SegmentBuilder{
		fields: make(map[string]map[string]*roaring.Bitmap),
	}
	for _, opt := range opts {
		opt(rv)
	}
	return rv
}

// AddTerm records that doc contains term in field.
func (b *SegmentBuilder) AddTerm(field string, doc uint32, term []byte) {
	terms, ok := b.fields[field]
	if !ok {
		terms = make(map[string]*roaring.Bitmap)
		b.fields[field] = terms
	}
	postings, ok := terms[string(term)]
	if !ok {
		postings = roaring.New()
		terms[string(term)] = postings
	}
	postings.Add(doc)
	if uint64(doc) >= b.numDocs {
		b.numDocs = uint64(doc) + 1
	}
}

// AddPoint indexes p for doc using every term format emits for it.
func (b *SegmentBuilder) AddPoint(field string, doc uint32, p GeoPoint, format PointFormat) error {
	terms, err := format.Terms(p)
	if err != nil {
		return fmt.Errorf("field %q doc %d: %w", field, doc, err)
	}
	for _, term := range terms {
		b.AddTerm(field, doc, term)
	}
	return nil
}

// SetNumDocs sets the document count of the segment, which must cover
// every document added so far.
func (b *SegmentBuilder) SetNumDocs(n uint64) error {
	if n < b.numDocs {
		return fmt.Errorf("num docs %d below highest added doc %d", n, b.numDocs-1)
	}
	b.numDocs = n
	return nil
}

// Build encodes the collected data into an in-memory SegmentBase.
func (b *SegmentBuilder) Build() (*SegmentBase, error) {
	var br bytes.Buffer
	w := NewCountHashWriter(&br)

	fieldsIndexOffset, err := b.writeTo(w)
	if err != nil {
		return nil, err
	}

	var flags uint32
	if b.compress {
		flags |= FlagSnappyPostings
	}

	return InitSegmentBase(br.Bytes(), w.Sum32(), b.numDocs, fieldsIndexOffset, flags)
}

// WriteTo writes the encoded segment, footer included, to w.
func (b *SegmentBuilder) WriteTo(w io.Writer) (int64, error) {
	sb, err := b.Build()
	if err != nil {
		return 0, err
	}
	n, err := persistSegmentBaseToWriter(sb, w)
	return int64(n), err
}

type fieldEntry struct {
	name      string
	dictAddr  uint64
	termCount uint64
}

func (b *SegmentBuilder) writeTo(w *CountHashWriter) (uint64, error) {
	fieldNames := make([]string, 0, len(b.fields))
	for name := range b.fields {
		fieldNames = append(fieldNames, name)
	}
	sort.Strings(fieldNames)

	reuseBufVarint := make([]byte, binary.MaxVarintLen64)
	entries := make([]fieldEntry, 0, len(fieldNames))

	var fstBuf bytes.Buffer
	for _, name := range fieldNames {
		terms := b.fields[name]
		keys := make([]string, 0, len(terms))
		for term := range terms {
			keys = append(keys, term)
		}
		sort.Strings(keys)

		// postings first, remembering where each one starts
		offsets := make([]uint64, len(keys))
		for i, term := range keys {
			postings := terms[term]
			postings.RunOptimize()
			offsets[i] = uint64(w.Count())
			_, err := writeRoaringWithLen(postings, w, reuseBufVarint, b.compress)
			if err != nil {
				return 0, err
			}
		}

		fstBuf.Reset()
		builder, err := vellum.New(&fstBuf, nil)
		if err != nil {
			return 0, err
		}
		for i, term := range keys {
			err = builder.Insert([]byte(term), offsets[i])
			if err != nil {
				return 0, fmt.Errorf("field %q: inserting term: %w", name, err)
			}
		}
		err = builder.Close()
		if err != nil {
			return 0, err
		}

		dictAddr := uint64(w.Count())
		_, err = writeUvarints(w, uint64(fstBuf.Len()))
		if err != nil {
			return 0, err
		}
		_, err = w.Write(fstBuf.Bytes())
		if err != nil {
			return 0, err
		}

		entries = append(entries, fieldEntry{
			name:      name,
			dictAddr:  dictAddr,
			termCount: uint64(len(keys)),
		})
	}

	fieldsIndexOffset := uint64(w.Count())
	_, err := writeUvarints(w, uint64(len(entries)))
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		_, err = writeUvarints(w, uint64(len(entry.name)))
		if err != nil {
			return 0, err
		}
		_, err = w.Write([]byte(entry.name))
		if err != nil {
			return 0, err
		}
		_, err = writeUvarints(w, entry.dictAddr, entry.termCount)
		if err != nil {
			return 0, err
		}
	}

	return fieldsIndexOffset, nil
}
