//  Copyright (c) 2025 Couchbase, Inc.
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
	"fmt"
	"reflect"

	"github.com/RoaringBitmap/roaring/v2"
)

// Ordinals maps each document of a segment to the ascending ordinals of its
// values.
type Ordinals interface {
	// NumOrds is the number of distinct ordinals.
	NumOrds() int64
	// IsMultiValued reports whether any document has more than one ordinal.
	IsMultiValued() bool
	// Cardinality is the number of ordinals of doc.
	Cardinality(doc int) int
	// OrdAt returns the i-th smallest ordinal of doc.
	OrdAt(doc int, i int) int64
	RamBytesUsed() int64
}

// AppendOrds appends the ordinals of doc to dst.
func AppendOrds(dst []int64, ords Ordinals, doc int) []int64 {
	n := ords.Cardinality(doc)
	for i := 0; i < n; i++ {
		dst = append(dst, ords.OrdAt(doc, i))
	}
	return dst
}

// OrdinalsBuilder assigns ordinals to terms in the order they are visited
// and records the documents holding each of them.
//
// The first ordinal of every document goes into firstOrds (ord+1, 0 when
// the document has no value yet). Every further (doc, ord) pair is appended
// to the spill arrays, which Build transposes into per-document lists.
type OrdinalsBuilder struct {
	maxDoc                  int
	acceptableOverheadRatio float32

	currentOrd int64
	lastDoc    int

	firstOrds *LongArray
	spillDocs *LongArray
	spillOrds *LongArray
	numSpills int64

	docsWithValue *roaring.Bitmap
}

// NewOrdinalsBuilder returns a builder for a segment holding maxDoc
// documents.
func NewOrdinalsBuilder(maxDoc int, acceptableOverheadRatio float32) *OrdinalsBuilder {
	return &OrdinalsBuilder{
		maxDoc:                  maxDoc,
		acceptableOverheadRatio: acceptableOverheadRatio,
		currentOrd:              -1,
		lastDoc:                 -1,
		firstOrds:               NewLongArray(int64(maxDoc)),
		spillDocs:               NewLongArray(0),
		spillOrds:               NewLongArray(0),
		docsWithValue:           roaring.New(),
	}
}

// NextOrdinal advances to the next term and returns its ordinal.
func (b *OrdinalsBuilder) NextOrdinal() int64 {
	b.currentOrd++
	b.lastDoc = -1
	return b.currentOrd
}

// AddDoc records that doc holds the current ordinal. Within one ordinal
// documents must be added in strictly increasing order.
func (b *OrdinalsBuilder) AddDoc(doc int) error {
	if b.currentOrd < 0 {
		return fmt.Errorf("document %d added before the first ordinal", doc)
	}
	if doc < 0 || doc >= b.maxDoc {
		return fmt.Errorf("%w: document %d out of range [0, %d)", ErrCorruptPostings, doc, b.maxDoc)
	}
	if doc <= b.lastDoc {
		return fmt.Errorf("%w: document %d after %d for ordinal %d",
			ErrCorruptPostings, doc, b.lastDoc, b.currentOrd)
	}
	b.lastDoc = doc

	if b.firstOrds.Get(int64(doc)) == 0 {
		b.firstOrds.Set(int64(doc), b.currentOrd+1)
		b.docsWithValue.Add(uint32(doc))
		return nil
	}

	b.spillDocs.Grow(b.numSpills + 1)
	b.spillOrds.Grow(b.numSpills + 1)
	b.spillDocs.Set(b.numSpills, int64(doc))
	b.spillOrds.Set(b.numSpills, b.currentOrd)
	b.numSpills++
	return nil
}

// NumOrds returns the number of ordinals handed out so far.
func (b *OrdinalsBuilder) NumOrds() int64 {
	return b.currentOrd + 1
}

// NumDocsWithValue returns how many documents hold at least one ordinal.
func (b *OrdinalsBuilder) NumDocsWithValue() int {
	return int(b.docsWithValue.GetCardinality())
}

// IsMultiValued reports whether any document received a second ordinal.
func (b *OrdinalsBuilder) IsMultiValued() bool {
	return b.numSpills > 0
}

// DocsWithValue returns the documents that hold at least one ordinal. The
// bitmap is owned by the caller.
func (b *OrdinalsBuilder) DocsWithValue() *roaring.Bitmap {
	rv := b.docsWithValue.Clone()
	rv.RunOptimize()
	return rv
}

// Build freezes the collected ordinals.
func (b *OrdinalsBuilder) Build() Ordinals {
	numOrds := b.NumOrds()
	if !b.IsMultiValued() {
		ords := newPackedInts(b.maxDoc, bitsRequired(uint64(numOrds)), b.acceptableOverheadRatio)
		for doc := 0; doc < b.maxDoc; doc++ {
			ords.Set(doc, uint64(b.firstOrds.Get(int64(doc))))
		}
		return newSingleOrdinals(ords, numOrds)
	}

	// per document counts, then offsets of each document's slice
	totalOrds := int64(b.NumDocsWithValue()) + b.numSpills
	offsets := newPackedInts(b.maxDoc+1, bitsRequired(uint64(totalOrds)), b.acceptableOverheadRatio)
	counts := NewLongArray(int64(b.maxDoc))
	for i := int64(0); i < b.numSpills; i++ {
		doc := b.spillDocs.Get(i)
		counts.Set(doc, counts.Get(doc)+1)
	}
	var next uint64
	for doc := 0; doc < b.maxDoc; doc++ {
		offsets.Set(doc, next)
		if b.firstOrds.Get(int64(doc)) != 0 {
			next += 1 + uint64(counts.Get(int64(doc)))
		}
	}
	offsets.Set(b.maxDoc, next)

	// counts is reused as the per document write cursor
	ords := newPackedInts(int(totalOrds), bitsRequired(uint64(numOrds-1)), b.acceptableOverheadRatio)
	for doc := 0; doc < b.maxDoc; doc++ {
		first := b.firstOrds.Get(int64(doc))
		if first == 0 {
			continue
		}
		start := offsets.Get(doc)
		ords.Set(int(start), uint64(first-1))
		counts.Set(int64(doc), int64(start)+1)
	}
	// spills were recorded in ascending ordinal order, so each document's
	// list stays sorted
	for i := int64(0); i < b.numSpills; i++ {
		doc := b.spillDocs.Get(i)
		pos := counts.Get(doc)
		ords.Set(int(pos), uint64(b.spillOrds.Get(i)))
		counts.Set(doc, pos+1)
	}
	return newMultiOrdinals(offsets, ords, numOrds)
}

// Close releases the builder's working arrays. The builder must not be used
// afterwards.
func (b *OrdinalsBuilder) Close() {
	b.firstOrds = nil
	b.spillDocs = nil
	b.spillOrds = nil
	b.docsWithValue = nil
}

var reflectStaticSizeSingleOrdinals int
var reflectStaticSizeMultiOrdinals int

func init() {
	var so singleOrdinals
	reflectStaticSizeSingleOrdinals = int(reflect.TypeOf(so).Size())
	var mo multiOrdinals
	reflectStaticSizeMultiOrdinals = int(reflect.TypeOf(mo).Size())
}

// singleOrdinals holds ord+1 per document, 0 meaning no value.
type singleOrdinals struct {
	ords    packedInts
	numOrds int64
	size    int64
}

func newSingleOrdinals(ords packedInts, numOrds int64) *singleOrdinals {
	rv := &singleOrdinals{ords: ords, numOrds: numOrds}
	rv.size = int64(reflectStaticSizeSingleOrdinals) + ords.RamBytesUsed()
	return rv
}

func (o *singleOrdinals) NumOrds() int64      { return o.numOrds }
func (o *singleOrdinals) IsMultiValued() bool { return false }
func (o *singleOrdinals) RamBytesUsed() int64 { return o.size }

func (o *singleOrdinals) Cardinality(doc int) int {
	if o.ords.Get(doc) == 0 {
		return 0
	}
	return 1
}

func (o *singleOrdinals) OrdAt(doc int, i int) int64 {
	if i != 0 {
		panic(fmt.Sprintf("ordinal index %d out of range for document %d", i, doc))
	}
	return int64(o.ords.Get(doc)) - 1
}

// multiOrdinals stores the ordinals of document d at
// ords[offsets[d]:offsets[d+1]].
type multiOrdinals struct {
	offsets packedInts
	ords    packedInts
	numOrds int64
	size    int64
}

func newMultiOrdinals(offsets, ords packedInts, numOrds int64) *multiOrdinals {
	rv := &multiOrdinals{offsets: offsets, ords: ords, numOrds: numOrds}
	rv.size = int64(reflectStaticSizeMultiOrdinals) +
		offsets.RamBytesUsed() + ords.RamBytesUsed()
	return rv
}

func (o *multiOrdinals) NumOrds() int64      { return o.numOrds }
func (o *multiOrdinals) IsMultiValued() bool { return true }
func (o *multiOrdinals) RamBytesUsed() int64 { return o.size }

func (o *multiOrdinals) Cardinality(doc int) int {
	return int(o.offsets.Get(doc+1) - o.offsets.Get(doc))
}

func (o *multiOrdinals) OrdAt(doc int, i int) int64 {
	start := o.offsets.Get(doc)
	if i < 0 || uint64(i) >= o.offsets.Get(doc+1)-start {
		panic(fmt.Sprintf("ordinal index %d out of range for document %d", i, doc))
	}
	return int64(o.ords.Get(int(start) + i))
}
