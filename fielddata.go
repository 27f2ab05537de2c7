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
	"reflect"

	"github.com/RoaringBitmap/roaring/v2"
)

// GeoPointValues iterates the values of one document at a time. An
// accessor is not safe for concurrent use; call Values once per goroutine.
type GeoPointValues interface {
	// SetDocument positions the accessor on doc.
	SetDocument(doc int)
	// Count returns the number of values of the current document.
	Count() int
	// ValueAt returns the i-th value of the current document, in ordinal
	// order.
	ValueAt(i int) GeoPoint
}

// GeoPointFieldData is the immutable, per segment field data of one geo
// point field.
type GeoPointFieldData interface {
	// Values returns a new accessor over the field data.
	Values() GeoPointValues
	// MaxDoc is the number of documents of the segment.
	MaxDoc() int
	// RamBytesUsed is the footprint reported to the limiter at load time.
	RamBytesUsed() int64
	// Close releases the field data. It does not release the memory
	// admitted for it; the owner does that on eviction.
	Close() error
}

// Shape names the representation backing a GeoPointFieldData.
type Shape uint8

const (
	ShapeEmpty Shape = iota
	ShapeFlat
	ShapeOrdinals
)

func (s Shape) String() string {
	switch s {
	case ShapeFlat:
		return "flat"
	case ShapeOrdinals:
		return "ordinals"
	}
	return "empty"
}

// ShapeOf returns the representation of fd, for diagnostics.
func ShapeOf(fd GeoPointFieldData) Shape {
	switch fd.(type) {
	case *flatFieldData:
		return ShapeFlat
	case *ordinalsFieldData:
		return ShapeOrdinals
	}
	return ShapeEmpty
}

var reflectStaticSizeEmptyFieldData int
var reflectStaticSizeFlatFieldData int
var reflectStaticSizeOrdinalsFieldData int

func init() {
	var efd emptyFieldData
	reflectStaticSizeEmptyFieldData = int(reflect.TypeOf(efd).Size())
	var ffd flatFieldData
	reflectStaticSizeFlatFieldData = int(reflect.TypeOf(ffd).Size())
	var ofd ordinalsFieldData
	reflectStaticSizeOrdinalsFieldData = int(reflect.TypeOf(ofd).Size())
}

type emptyFieldData struct {
	maxDoc int
}

func newEmptyFieldData(maxDoc int) *emptyFieldData {
	return &emptyFieldData{maxDoc: maxDoc}
}

func (e *emptyFieldData) Values() GeoPointValues { return emptyValues{} }
func (e *emptyFieldData) MaxDoc() int            { return e.maxDoc }
func (e *emptyFieldData) RamBytesUsed() int64    { return int64(reflectStaticSizeEmptyFieldData) }
func (e *emptyFieldData) Close() error           { return nil }

type emptyValues struct{}

func (emptyValues) SetDocument(int)      {}
func (emptyValues) Count() int           { return 0 }
func (emptyValues) ValueAt(int) GeoPoint { panic("no values") }

// flatFieldData holds at most one value per document, indexed by document.
type flatFieldData struct {
	values        pointColumn
	docsWithValue *roaring.Bitmap
	maxDoc        int
	size          int64
}

func newFlatFieldData(values pointColumn, docsWithValue *roaring.Bitmap, maxDoc int) *flatFieldData {
	rv := &flatFieldData{
		values:        values,
		docsWithValue: docsWithValue,
		maxDoc:        maxDoc,
	}
	rv.size = int64(reflectStaticSizeFlatFieldData) +
		values.ramBytesUsed() +
		int64(docsWithValue.GetSizeInBytes())
	return rv
}

func (f *flatFieldData) MaxDoc() int         { return f.maxDoc }
func (f *flatFieldData) RamBytesUsed() int64 { return f.size }

func (f *flatFieldData) Close() error {
	f.values = nil
	f.docsWithValue = nil
	return nil
}

func (f *flatFieldData) Values() GeoPointValues {
	return &flatValues{fd: f}
}

type flatValues struct {
	fd    *flatFieldData
	doc   int
	count int
}

func (v *flatValues) SetDocument(doc int) {
	v.doc = doc
	v.count = 0
	if v.fd.docsWithValue.Contains(uint32(doc)) {
		v.count = 1
	}
}

func (v *flatValues) Count() int {
	return v.count
}

func (v *flatValues) ValueAt(i int) GeoPoint {
	if i >= v.count {
		panic("value index out of range")
	}
	return v.fd.values.point(int64(v.doc))
}

// ordinalsFieldData resolves values through a per-document ordinal list
// and a table of values indexed by ordinal.
type ordinalsFieldData struct {
	table  pointColumn
	ords   Ordinals
	maxDoc int
	size   int64
}

func newOrdinalsFieldData(table pointColumn, ords Ordinals, maxDoc int) *ordinalsFieldData {
	rv := &ordinalsFieldData{
		table:  table,
		ords:   ords,
		maxDoc: maxDoc,
	}
	rv.size = int64(reflectStaticSizeOrdinalsFieldData) +
		table.ramBytesUsed() +
		ords.RamBytesUsed()
	return rv
}

func (o *ordinalsFieldData) MaxDoc() int         { return o.maxDoc }
func (o *ordinalsFieldData) RamBytesUsed() int64 { return o.size }

func (o *ordinalsFieldData) Close() error {
	o.table = nil
	o.ords = nil
	return nil
}

// Ordinals exposes the ordinal mapping, for aggregations that work on
// ordinals directly.
func (o *ordinalsFieldData) Ordinals() Ordinals {
	return o.ords
}

func (o *ordinalsFieldData) Values() GeoPointValues {
	return &ordinalsValues{fd: o}
}

type ordinalsValues struct {
	fd    *ordinalsFieldData
	doc   int
	count int
}

func (v *ordinalsValues) SetDocument(doc int) {
	v.doc = doc
	v.count = v.fd.ords.Cardinality(doc)
}

func (v *ordinalsValues) Count() int {
	return v.count
}

func (v *ordinalsValues) ValueAt(i int) GeoPoint {
	return v.fd.table.point(v.fd.ords.OrdAt(v.doc, i))
}
