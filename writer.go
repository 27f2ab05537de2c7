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
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/golang/snappy"
)

// Version is the on-disk format version written to the footer.
const Version uint32 = 1

// FooterSize is the size of the footer record in bytes
// numDocs (8) + fieldsIndexOffset (8) + flags (4) + version (4) + crc (4)
const FooterSize = 8 + 8 + 4 + 4 + 4

// FlagSnappyPostings marks segments whose postings are snappy compressed.
const FlagSnappyPostings uint32 = 1 << 0

// writes out the length of the roaring bitmap in bytes as varint
// then writes out the roaring bitmap itself
func writeRoaringWithLen(r *roaring.Bitmap, w io.Writer,
	reuseBufVarint []byte, compress bool) (int, error) {
	buf, err := r.ToBytes()
	if err != nil {
		return 0, err
	}
	if compress {
		buf = snappy.Encode(nil, buf)
	}

	var tw int

	// write out the length
	n := binary.PutUvarint(reuseBufVarint, uint64(len(buf)))
	nw, err := w.Write(reuseBufVarint[:n])
	tw += nw
	if err != nil {
		return tw, err
	}

	// write out the roaring bytes
	nw, err = w.Write(buf)
	tw += nw
	if err != nil {
		return tw, err
	}

	return tw, nil
}

func writeUvarints(w io.Writer, vals ...uint64) (tw int, err error) {
	buf := make([]byte, binary.MaxVarintLen64)
	for _, val := range vals {
		n := binary.PutUvarint(buf, val)
		var nw int
		nw, err = w.Write(buf[:n])
		tw += nw
		if err != nil {
			return tw, err
		}
	}
	return tw, err
}

type footer struct {
	numDocs           uint64
	fieldsIndexOffset uint64
	flags             uint32
	version           uint32
	crc               uint32
}

func persistFooter(f *footer, w io.Writer) error {
	buf := make([]byte, FooterSize)
	binary.BigEndian.PutUint64(buf[0:8], f.numDocs)
	binary.BigEndian.PutUint64(buf[8:16], f.fieldsIndexOffset)
	binary.BigEndian.PutUint32(buf[16:20], f.flags)
	binary.BigEndian.PutUint32(buf[20:24], f.version)
	binary.BigEndian.PutUint32(buf[24:28], f.crc)
	_, err := w.Write(buf)
	return err
}

func parseFooter(data []byte) *footer {
	buf := data[len(data)-FooterSize:]
	return &footer{
		numDocs:           binary.BigEndian.Uint64(buf[0:8]),
		fieldsIndexOffset: binary.BigEndian.Uint64(buf[8:16]),
		flags:             binary.BigEndian.Uint32(buf[16:20]),
		version:           binary.BigEndian.Uint32(buf[20:24]),
		crc:               binary.BigEndian.Uint32(buf[24:28]),
	}
}

// PersistSegmentBase persists SegmentBase in the file format to the
// given path.
func PersistSegmentBase(sb *SegmentBase, path string) error {
	flag := os.O_RDWR | os.O_CREATE | os.O_TRUNC

	f, err := os.OpenFile(path, flag, 0600)
	if err != nil {
		return err
	}

	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(path)
	}

	br := bufio.NewWriter(f)

	_, err = persistSegmentBaseToWriter(sb, br)
	if err != nil {
		cleanup()
		return err
	}

	err = br.Flush()
	if err != nil {
		cleanup()
		return err
	}

	err = f.Sync()
	if err != nil {
		cleanup()
		return err
	}

	err = f.Close()
	if err != nil {
		cleanup()
		return err
	}

	return nil
}

func persistSegmentBaseToWriter(sb *SegmentBase, w io.Writer) (int, error) {
	n, err := w.Write(sb.mem)
	if err != nil {
		return n, err
	}

	err = persistFooter(&footer{
		numDocs:           sb.numDocs,
		fieldsIndexOffset: sb.fieldsIndexOffset,
		flags:             sb.flags,
		version:           Version,
		crc:               sb.memCRC,
	}, w)
	if err != nil {
		return n, err
	}

	return n + FooterSize, nil
}
