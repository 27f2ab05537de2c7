//  Copyright (c) 2017 Couchbase, Inc.
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

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/golang/snappy"
)

// postingsAt reads the postings list stored at offset into rv. Uncompressed
// postings share the segment bytes; compressed ones are decoded into buf,
// which is returned for reuse.
func (sb *SegmentBase) postingsAt(offset uint64, rv *roaring.Bitmap,
	buf []byte) ([]byte, error) {
	postingsLen, n, err := sb.readUvarint(offset)
	if err != nil {
		return buf, fmt.Errorf("postings at %d: %w", offset, err)
	}
	start := offset + n
	if start+postingsLen > uint64(len(sb.mem)) {
		return buf, fmt.Errorf("postings at %d: length %d exceeds segment data",
			offset, postingsLen)
	}
	data := sb.mem[start : start+postingsLen]

	if sb.flags&FlagSnappyPostings != 0 {
		buf, err = snappy.Decode(buf[:cap(buf)], data)
		if err != nil {
			return buf, fmt.Errorf("postings at %d: %w", offset, err)
		}
		data = buf
	}

	rv.Clear()
	_, err = rv.FromBuffer(data)
	if err != nil {
		return buf, fmt.Errorf("postings at %d: error loading roaring bitmap: %v", offset, err)
	}
	return buf, nil
}
