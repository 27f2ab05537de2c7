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
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// PointFormat selects how geo point terms are laid out in the term
// dictionary. Exactly one format is active for a given load.
type PointFormat uint8

const (
	// FormatHashed stores one morton hash per term, with additional
	// lower-precision terms used for range queries.
	FormatHashed PointFormat = iota
	// FormatLegacy stores latitude and longitude as two big-endian doubles.
	FormatLegacy
)

const (
	legacyTermLen = 16
	hashedTermLen = 9

	// hashedShiftPrefix is added to the shift to form the first term byte.
	hashedShiftPrefix = 0x20
	// HashedPrecisionStep is the distance in bits between the shifts of the
	// lower-precision terms indexed alongside each full-precision hash.
	HashedPrecisionStep = 9
)

func (f PointFormat) String() string {
	switch f {
	case FormatHashed:
		return "hashed"
	case FormatLegacy:
		return "legacy"
	}
	return fmt.Sprintf("PointFormat(%d)", uint8(f))
}

// ParsePointFormat maps a format name to its PointFormat.
func ParsePointFormat(s string) (PointFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hashed":
		return FormatHashed, nil
	case "legacy":
		return FormatLegacy, nil
	}
	return 0, fmt.Errorf("unknown point format %q", s)
}

func (f PointFormat) valid() bool {
	return f == FormatHashed || f == FormatLegacy
}

// EncodeTerm returns the full precision term for p.
func (f PointFormat) EncodeTerm(p GeoPoint) ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid geo point %v", p)
	}
	switch f {
	case FormatLegacy:
		rv := make([]byte, legacyTermLen)
		binary.BigEndian.PutUint64(rv[0:8], math.Float64bits(p.Lat))
		binary.BigEndian.PutUint64(rv[8:16], math.Float64bits(p.Lon))
		return rv, nil
	case FormatHashed:
		return hashedTerm(MortonHash(p), 0), nil
	}
	return nil, fmt.Errorf("unknown point format %d", f)
}

// Terms returns every term indexed for p: the full precision term first,
// followed for FormatHashed by the lower-precision prefix terms.
func (f PointFormat) Terms(p GeoPoint) ([][]byte, error) {
	full, err := f.EncodeTerm(p)
	if err != nil {
		return nil, err
	}
	rv := [][]byte{full}
	if f == FormatHashed {
		h := MortonHash(p)
		for shift := uint(HashedPrecisionStep); shift < 64; shift += HashedPrecisionStep {
			rv = append(rv, hashedTerm(h, shift))
		}
	}
	return rv, nil
}

func hashedTerm(h uint64, shift uint) []byte {
	rv := make([]byte, hashedTermLen)
	rv[0] = byte(hashedShiftPrefix + shift)
	binary.BigEndian.PutUint64(rv[1:], (h>>shift)<<shift)
	return rv
}

// pointValue is a decoded term. Legacy values use lat/lon, hashed values
// use hash.
type pointValue struct {
	lat, lon float64
	hash     uint64
}

// decode turns a term into a value. ok is false for terms that carry no
// value of their own (lower-precision hashed terms).
func (f PointFormat) decode(term []byte) (v pointValue, ok bool, reason string) {
	switch f {
	case FormatLegacy:
		if len(term) != legacyTermLen {
			return v, false, fmt.Sprintf("expected %d bytes, got %d", legacyTermLen, len(term))
		}
		v.lat = math.Float64frombits(binary.BigEndian.Uint64(term[0:8]))
		v.lon = math.Float64frombits(binary.BigEndian.Uint64(term[8:16]))
		if !(GeoPoint{Lat: v.lat, Lon: v.lon}).Valid() {
			return v, false, fmt.Sprintf("coordinates out of range: %f,%f", v.lat, v.lon)
		}
		return v, true, ""
	case FormatHashed:
		if len(term) != hashedTermLen {
			return v, false, fmt.Sprintf("expected %d bytes, got %d", hashedTermLen, len(term))
		}
		if term[0] < hashedShiftPrefix || term[0] >= hashedShiftPrefix+64 {
			return v, false, fmt.Sprintf("invalid shift byte 0x%02x", term[0])
		}
		shift := uint(term[0] - hashedShiftPrefix)
		v.hash = binary.BigEndian.Uint64(term[1:])
		if shift != 0 {
			if shift%HashedPrecisionStep != 0 || v.hash&(1<<shift-1) != 0 {
				return v, false, fmt.Sprintf("malformed prefix term with shift %d", shift)
			}
			return v, false, ""
		}
		return v, true, ""
	}
	return v, false, fmt.Sprintf("unknown point format %d", f)
}

// DecodeTerm returns the point carried by term. ok is false for the
// lower-precision terms of FormatHashed, which carry no point of their own.
func (f PointFormat) DecodeTerm(term []byte) (p GeoPoint, ok bool, err error) {
	v, ok, reason := f.decode(term)
	if reason != "" {
		return p, false, &CorruptValueError{
			Format: f,
			Term:   append([]byte(nil), term...),
			Reason: reason,
		}
	}
	if !ok {
		return p, false, nil
	}
	if f == FormatLegacy {
		return GeoPoint{Lat: v.lat, Lon: v.lon}, true, nil
	}
	return MortonUnhash(v.hash), true, nil
}

// newColumn returns an empty column of size slots for the format.
func (f PointFormat) newColumn(size int64) pointColumn {
	if f == FormatLegacy {
		return &latLonColumn{
			lat: NewDoubleArray(size),
			lon: NewDoubleArray(size),
		}
	}
	return &hashedColumn{hashes: NewLongArray(size)}
}

// pointColumn stores one decoded value per slot. Slots are ordinals for
// the ordinal table and document ids for flattened field data.
type pointColumn interface {
	set(slot int64, v pointValue)
	get(slot int64) pointValue
	point(slot int64) GeoPoint
	grow(minSize int64)
	resize(size int64)
	size() int64
	ramBytesUsed() int64
}

var reflectStaticSizeLatLonColumn int
var reflectStaticSizeHashedColumn int

func init() {
	var llc latLonColumn
	reflectStaticSizeLatLonColumn = int(reflect.TypeOf(llc).Size())
	var hc hashedColumn
	reflectStaticSizeHashedColumn = int(reflect.TypeOf(hc).Size())
}

type latLonColumn struct {
	lat *DoubleArray
	lon *DoubleArray
}

func (c *latLonColumn) set(slot int64, v pointValue) {
	c.lat.Set(slot, v.lat)
	c.lon.Set(slot, v.lon)
}

func (c *latLonColumn) get(slot int64) pointValue {
	return pointValue{lat: c.lat.Get(slot), lon: c.lon.Get(slot)}
}

func (c *latLonColumn) point(slot int64) GeoPoint {
	return GeoPoint{Lat: c.lat.Get(slot), Lon: c.lon.Get(slot)}
}

func (c *latLonColumn) grow(minSize int64) {
	c.lat.Grow(minSize)
	c.lon.Grow(minSize)
}

func (c *latLonColumn) resize(size int64) {
	c.lat.Resize(size)
	c.lon.Resize(size)
}

func (c *latLonColumn) size() int64 {
	return c.lat.Size()
}

func (c *latLonColumn) ramBytesUsed() int64 {
	return int64(reflectStaticSizeLatLonColumn+2*SizeOfPtr) +
		c.lat.RamBytesUsed() + c.lon.RamBytesUsed()
}

type hashedColumn struct {
	hashes *LongArray
}

func (c *hashedColumn) set(slot int64, v pointValue) {
	c.hashes.Set(slot, int64(v.hash))
}

func (c *hashedColumn) get(slot int64) pointValue {
	return pointValue{hash: uint64(c.hashes.Get(slot))}
}

func (c *hashedColumn) point(slot int64) GeoPoint {
	return MortonUnhash(uint64(c.hashes.Get(slot)))
}

func (c *hashedColumn) grow(minSize int64) {
	c.hashes.Grow(minSize)
}

func (c *hashedColumn) resize(size int64) {
	c.hashes.Resize(size)
}

func (c *hashedColumn) size() int64 {
	return c.hashes.Size()
}

func (c *hashedColumn) ramBytesUsed() int64 {
	return int64(reflectStaticSizeHashedColumn+SizeOfPtr) + c.hashes.RamBytesUsed()
}
