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
	"math/bits"
	"reflect"
)

// Acceptable overhead ratios for packed storage. The ratio bounds how many
// extra bits per value may be spent to get a faster, byte aligned layout.
const (
	Compact float32 = 0
	Default float32 = 0.25
	Fast    float32 = 0.5
	Fastest float32 = 7

	DefaultAcceptableOverheadRatio = Fast
)

// packedInts is a fixed size sequence of unsigned integers of at most
// BitsPerValue bits each.
type packedInts interface {
	Get(i int) uint64
	Set(i int, v uint64)
	Len() int
	BitsPerValue() int
	RamBytesUsed() int64
}

// bitsRequired returns the number of bits needed to hold maxValue, at least 1.
func bitsRequired(maxValue uint64) int {
	if maxValue == 0 {
		return 1
	}
	return bits.Len64(maxValue)
}

// fastestFormatAndBits picks the storage width for valueCount values of
// bitsPerValue bits. It rounds up to a byte aligned width when that costs at
// most acceptableOverheadRatio*bitsPerValue extra bits per value, otherwise
// it keeps bit packing. packed reports whether bit packing was chosen.
func fastestFormatAndBits(valueCount, bitsPerValue int, acceptableOverheadRatio float32) (packed bool, actualBits int) {
	if acceptableOverheadRatio < Compact {
		acceptableOverheadRatio = Compact
	}
	if acceptableOverheadRatio > Fastest {
		acceptableOverheadRatio = Fastest
	}
	maxBitsPerValue := bitsPerValue + int(acceptableOverheadRatio*float32(bitsPerValue))

	switch {
	case bitsPerValue <= 8 && maxBitsPerValue >= 8:
		return false, 8
	case bitsPerValue <= 16 && maxBitsPerValue >= 16:
		return false, 16
	case bitsPerValue <= 32 && maxBitsPerValue >= 32:
		return false, 32
	case bitsPerValue == 64 || (bitsPerValue <= 64 && maxBitsPerValue >= 64):
		return false, 64
	}
	return true, bitsPerValue
}

// newPackedInts allocates storage for valueCount values that fit in
// bitsPerValue bits.
func newPackedInts(valueCount, bitsPerValue int, acceptableOverheadRatio float32) packedInts {
	if bitsPerValue < 1 || bitsPerValue > 64 {
		panic(fmt.Sprintf("unsupported bits per value %d", bitsPerValue))
	}
	packed, actualBits := fastestFormatAndBits(valueCount, bitsPerValue, acceptableOverheadRatio)
	if packed {
		return newPacked64(valueCount, actualBits)
	}
	switch actualBits {
	case 8:
		return &direct[uint8]{values: make([]uint8, valueCount)}
	case 16:
		return &direct[uint16]{values: make([]uint16, valueCount)}
	case 32:
		return &direct[uint32]{values: make([]uint32, valueCount)}
	}
	return &direct[uint64]{values: make([]uint64, valueCount)}
}

var reflectStaticSizeDirect int
var reflectStaticSizePacked64 int

func init() {
	var d direct[uint64]
	reflectStaticSizeDirect = int(reflect.TypeOf(d).Size())
	var p packed64
	reflectStaticSizePacked64 = int(reflect.TypeOf(p).Size())
}

// direct stores each value in its own machine word of type T.
type direct[T uint8 | uint16 | uint32 | uint64] struct {
	values []T
}

func (d *direct[T]) Get(i int) uint64 {
	return uint64(d.values[i])
}

func (d *direct[T]) Set(i int, v uint64) {
	d.values[i] = T(v)
}

func (d *direct[T]) Len() int {
	return len(d.values)
}

func (d *direct[T]) BitsPerValue() int {
	var zero T
	return int(reflect.TypeOf(zero).Size()) * 8
}

func (d *direct[T]) RamBytesUsed() int64 {
	return int64(reflectStaticSizeDirect) + int64(cap(d.values)*d.BitsPerValue()/8)
}

// packed64 stores values back to back in 64 bit blocks; a value may span
// two consecutive blocks.
type packed64 struct {
	blocks       []uint64
	valueCount   int
	bitsPerValue int
	mask         uint64
}

func newPacked64(valueCount, bitsPerValue int) *packed64 {
	numBlocks := (valueCount*bitsPerValue + 63) >> 6
	return &packed64{
		blocks:       make([]uint64, numBlocks),
		valueCount:   valueCount,
		bitsPerValue: bitsPerValue,
		mask:         uint64(1)<<uint(bitsPerValue) - 1,
	}
}

func (p *packed64) Get(i int) uint64 {
	if i < 0 || i >= p.valueCount {
		panic(fmt.Sprintf("index %d out of bounds for %d packed values", i, p.valueCount))
	}
	bitIndex := uint64(i) * uint64(p.bitsPerValue)
	block := bitIndex >> 6
	offset := uint(bitIndex & 63)
	v := p.blocks[block] >> offset
	if int(offset)+p.bitsPerValue > 64 {
		v |= p.blocks[block+1] << (64 - offset)
	}
	return v & p.mask
}

func (p *packed64) Set(i int, v uint64) {
	if i < 0 || i >= p.valueCount {
		panic(fmt.Sprintf("index %d out of bounds for %d packed values", i, p.valueCount))
	}
	v &= p.mask
	bitIndex := uint64(i) * uint64(p.bitsPerValue)
	block := bitIndex >> 6
	offset := uint(bitIndex & 63)
	p.blocks[block] = p.blocks[block]&^(p.mask<<offset) | v<<offset
	if int(offset)+p.bitsPerValue > 64 {
		spill := 64 - offset
		p.blocks[block+1] = p.blocks[block+1]&^(p.mask>>spill) | v>>spill
	}
}

func (p *packed64) Len() int {
	return p.valueCount
}

func (p *packed64) BitsPerValue() int {
	return p.bitsPerValue
}

func (p *packed64) RamBytesUsed() int64 {
	return int64(reflectStaticSizePacked64) + int64(cap(p.blocks)*SizeOfUint64)
}
