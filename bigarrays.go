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
)

// Arrays are split into fixed size pages so that a single array never needs
// one contiguous allocation, regardless of how many values it holds.
const (
	pageShift = 14
	pageSize  = 1 << pageShift
	pageMask  = pageSize - 1
)

var reflectStaticSizePagedArray int

func init() {
	var pa pagedArray[int64]
	reflectStaticSizePagedArray = int(reflect.TypeOf(pa).Size())
}

type pagedArray[T int64 | float64] struct {
	size  int64
	pages [][]T
}

func newPagedArray[T int64 | float64](size int64) pagedArray[T] {
	var rv pagedArray[T]
	rv.Resize(size)
	return rv
}

// Size returns the number of addressable elements.
func (a *pagedArray[T]) Size() int64 {
	return a.size
}

func (a *pagedArray[T]) checkIndex(index int64) {
	if index < 0 || index >= a.size {
		panic(fmt.Sprintf("index %d out of bounds for array of size %d", index, a.size))
	}
}

// Get returns the element at index.
func (a *pagedArray[T]) Get(index int64) T {
	a.checkIndex(index)
	return a.pages[index>>pageShift][index&pageMask]
}

// Set stores v at index. index must be below Size.
func (a *pagedArray[T]) Set(index int64, v T) {
	a.checkIndex(index)
	a.pages[index>>pageShift][index&pageMask] = v
}

// Resize changes the number of addressable elements. Grown slots are zero,
// elements at or beyond newSize are dropped.
func (a *pagedArray[T]) Resize(newSize int64) {
	if newSize < 0 {
		panic(fmt.Sprintf("negative array size %d", newSize))
	}
	numPages := int((newSize + pageMask) >> pageShift)
	lastLen := int(newSize & pageMask)
	if lastLen == 0 && newSize > 0 {
		lastLen = pageSize
	}

	if numPages < len(a.pages) {
		for i := numPages; i < len(a.pages); i++ {
			a.pages[i] = nil
		}
		a.pages = a.pages[:numPages]
	}

	for i := 0; i < numPages; i++ {
		want := pageSize
		if i == numPages-1 {
			want = lastLen
		}
		if i >= len(a.pages) {
			a.pages = append(a.pages, make([]T, want))
			continue
		}
		page := a.pages[i]
		switch {
		case len(page) == want:
		case len(page) > want:
			// reallocate so the dropped tail does not keep its backing store
			shrunk := make([]T, want)
			copy(shrunk, page)
			a.pages[i] = shrunk
		default:
			grown := make([]T, want)
			copy(grown, page)
			a.pages[i] = grown
		}
	}
	a.size = newSize
}

// Grow makes sure at least minSize elements are addressable, over-allocating
// so that a sequence of appends costs amortised constant time.
func (a *pagedArray[T]) Grow(minSize int64) {
	if minSize <= a.size {
		return
	}
	a.Resize(oversize(minSize))
}

// RamBytesUsed returns the heap size of the array including page headers.
func (a *pagedArray[T]) RamBytesUsed() int64 {
	var zero T
	elemSize := int64(reflect.TypeOf(zero).Size())
	rv := int64(reflectStaticSizePagedArray)
	for _, page := range a.pages {
		rv += int64(SizeOfSlice) + int64(cap(page))*elemSize
	}
	return rv
}

// oversize returns a capacity >= minSize, growing by 1/8th with a small
// floor for tiny arrays.
func oversize(minSize int64) int64 {
	extra := minSize >> 3
	if extra < 3 {
		extra = 3
	}
	return minSize + extra
}

// LongArray is a resizable array of int64 values.
type LongArray struct {
	pagedArray[int64]
}

// NewLongArray returns a zeroed LongArray holding size elements.
func NewLongArray(size int64) *LongArray {
	return &LongArray{newPagedArray[int64](size)}
}

// DoubleArray is a resizable array of float64 values.
type DoubleArray struct {
	pagedArray[float64]
}

// NewDoubleArray returns a zeroed DoubleArray holding size elements.
func NewDoubleArray(size int64) *DoubleArray {
	return &DoubleArray{newPagedArray[float64](size)}
}
