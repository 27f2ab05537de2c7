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

import "unsafe"

var (
	SizeOfPtr     int
	SizeOfSlice   int
	SizeOfString  int
	SizeOfMap     int
	SizeOfInt     int
	SizeOfUint8   int
	SizeOfUint16  int
	SizeOfUint32  int
	SizeOfUint64  int
	SizeOfFloat64 int
)

func init() {
	var p *int
	SizeOfPtr = int(unsafe.Sizeof(p))
	var s []int
	SizeOfSlice = int(unsafe.Sizeof(s))
	var str string
	SizeOfString = int(unsafe.Sizeof(str))
	var m map[int]int
	SizeOfMap = int(unsafe.Sizeof(m))
	var i int
	SizeOfInt = int(unsafe.Sizeof(i))
	var u8 uint8
	SizeOfUint8 = int(unsafe.Sizeof(u8))
	var u16 uint16
	SizeOfUint16 = int(unsafe.Sizeof(u16))
	var u32 uint32
	SizeOfUint32 = int(unsafe.Sizeof(u32))
	var u64 uint64
	SizeOfUint64 = int(unsafe.Sizeof(u64))
	var f64 float64
	SizeOfFloat64 = int(unsafe.Sizeof(f64))
}
