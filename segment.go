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
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"sync"
	"unsafe"

	mmap "github.com/blevesearch/mmap-go"
)

var reflectStaticSizeSegmentBase int

func init() {
	var sb SegmentBase
	reflectStaticSizeSegmentBase = int(unsafe.Sizeof(sb))
}

// Open returns a segment backed by the mmap'ed file at path. The version
// and the crc stored in the footer are verified.
func Open(path string) (*Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		// mmap failed, try to close the file
		_ = f.Close()
		return nil, err
	}

	rv := &Segment{
		SegmentBase: SegmentBase{
			fieldsMap: make(map[string]uint16),
			dictCache: newDictCache(),
		},
		f:    f,
		mm:   mm,
		path: path,
		refs: 1,
	}

	err = rv.loadConfig()
	if err != nil {
		_ = rv.Close()
		return nil, err
	}

	err = rv.loadFields()
	if err != nil {
		_ = rv.Close()
		return nil, err
	}

	rv.SegmentBase.updateSize()
	return rv, nil
}

// InitSegmentBase wraps encoded segment data, footer excluded, as a
// SegmentBase.
func InitSegmentBase(mem []byte, memCRC uint32, numDocs uint64,
	fieldsIndexOffset uint64, flags uint32) (*SegmentBase, error) {
	sb := &SegmentBase{
		mem:               mem,
		memCRC:            memCRC,
		flags:             flags,
		numDocs:           numDocs,
		fieldsIndexOffset: fieldsIndexOffset,
		fieldsMap:         make(map[string]uint16),
		dictCache:         newDictCache(),
	}

	err := sb.loadFields()
	if err != nil {
		return nil, err
	}

	sb.updateSize()
	return sb, nil
}

// SegmentBase is a memory only, read-only segment: a term dictionary and
// postings per field.
type SegmentBase struct {
	mem               []byte
	memCRC            uint32
	flags             uint32
	numDocs           uint64
	fieldsIndexOffset uint64
	fieldsMap         map[string]uint16 // fieldName -> fieldID+1
	fieldsInv         []string          // fieldID -> fieldName
	fieldsDictAddr    []uint64          // fieldID -> dictionary offset
	fieldsTermCount   []uint64          // fieldID -> number of terms
	size              uint64

	dictCache *dictCache
}

func (sb *SegmentBase) Size() int {
	return int(sb.size)
}

func (sb *SegmentBase) updateSize() {
	sizeInBytes := reflectStaticSizeSegmentBase +
		cap(sb.mem)

	// fieldsMap
	for k := range sb.fieldsMap {
		sizeInBytes += (len(k) + SizeOfString) + SizeOfUint16
	}

	// fieldsInv
	for _, entry := range sb.fieldsInv {
		sizeInBytes += len(entry) + SizeOfString
	}

	// fieldsDictAddr, fieldsTermCount
	sizeInBytes += (len(sb.fieldsDictAddr) + len(sb.fieldsTermCount)) * SizeOfUint64

	sb.size = uint64(sizeInBytes)
}

func (sb *SegmentBase) Close() (err error) {
	sb.dictCache.Clear()
	return nil
}

// NumDocs returns the number of documents in this segment.
func (sb *SegmentBase) NumDocs() uint64 {
	return sb.numDocs
}

// Fields returns the field names used in this segment
func (sb *SegmentBase) Fields() []string {
	return sb.fieldsInv
}

// Flags returns the flags word of the segment.
func (sb *SegmentBase) Flags() uint32 {
	return sb.flags
}

// FieldsIndexOffset returns the offset of the fields index.
func (sb *SegmentBase) FieldsIndexOffset() uint64 {
	return sb.fieldsIndexOffset
}

// TermCount returns the number of distinct terms of field, 0 when the
// field is absent.
func (sb *SegmentBase) TermCount(field string) uint64 {
	fieldIDPlus1 := sb.fieldsMap[field]
	if fieldIDPlus1 == 0 {
		return 0
	}
	return sb.fieldsTermCount[fieldIDPlus1-1]
}

// DictAddr returns the offset where the dictionary of field is stored.
func (sb *SegmentBase) DictAddr(field string) (uint64, error) {
	fieldIDPlus1, ok := sb.fieldsMap[field]
	if !ok {
		return 0, fmt.Errorf("no such field '%s'", field)
	}
	return sb.fieldsDictAddr[fieldIDPlus1-1], nil
}

func (sb *SegmentBase) readUvarint(pos uint64) (uint64, uint64, error) {
	if pos >= uint64(len(sb.mem)) {
		return 0, 0, fmt.Errorf("offset %d beyond segment data of %d bytes", pos, len(sb.mem))
	}
	v, n := binary.Uvarint(sb.mem[pos:])
	if n <= 0 {
		return 0, 0, fmt.Errorf("invalid uvarint at offset %d", pos)
	}
	return v, uint64(n), nil
}

func (sb *SegmentBase) loadFields() error {
	pos := sb.fieldsIndexOffset
	if pos >= uint64(len(sb.mem)) {
		return fmt.Errorf("fields index offset %d beyond segment data of %d bytes",
			pos, len(sb.mem))
	}

	numFields, n, err := sb.readUvarint(pos)
	if err != nil {
		return err
	}
	pos += n

	for fieldID := uint64(0); fieldID < numFields; fieldID++ {
		nameLen, n, err := sb.readUvarint(pos)
		if err != nil {
			return err
		}
		pos += n
		if pos+nameLen > uint64(len(sb.mem)) {
			return fmt.Errorf("field %d name exceeds segment data", fieldID)
		}
		name := string(sb.mem[pos : pos+nameLen])
		pos += nameLen

		dictAddr, n, err := sb.readUvarint(pos)
		if err != nil {
			return err
		}
		pos += n
		if dictAddr >= sb.fieldsIndexOffset {
			return fmt.Errorf("field '%s' dictionary offset %d beyond data", name, dictAddr)
		}

		termCount, n, err := sb.readUvarint(pos)
		if err != nil {
			return err
		}
		pos += n

		sb.fieldsInv = append(sb.fieldsInv, name)
		sb.fieldsMap[name] = uint16(fieldID + 1)
		sb.fieldsDictAddr = append(sb.fieldsDictAddr, dictAddr)
		sb.fieldsTermCount = append(sb.fieldsTermCount, termCount)
	}

	return nil
}

// Terms returns an enumerator over the terms of field in byte order. An
// absent field yields an enumerator with no terms.
func (sb *SegmentBase) Terms(field string) (TermsEnum, error) {
	fieldIDPlus1 := sb.fieldsMap[field]
	if fieldIDPlus1 == 0 {
		return emptyTerms, nil
	}
	fieldID := fieldIDPlus1 - 1
	fst, err := sb.dictCache.loadOrCreate(fieldID, sb.mem[sb.fieldsDictAddr[fieldID]:])
	if err != nil {
		return nil, fmt.Errorf("dictionary for field %s err: %v", field, err)
	}
	return newTermsEnum(sb, fst)
}

// Segment is a persisted segment, embedding an mmap()'ed SegmentBase.
type Segment struct {
	SegmentBase

	f       *os.File
	mm      mmap.MMap
	path    string
	version uint32
	crc     uint32

	m    sync.Mutex // Protects the fields that follow.
	refs int64
}

func (s *Segment) Size() int {
	// 8 /* size of file pointer */
	// 4 /* size of version -> uint32 */
	// 4 /* size of crc -> uint32 */
	sizeOfUints := 16

	sizeInBytes := (len(s.path) + SizeOfString) + sizeOfUints

	// mutex, refs -> int64
	sizeInBytes += 16

	// do not include the mmap'ed part
	return sizeInBytes + s.SegmentBase.Size() - cap(s.mem)
}

func (s *Segment) AddRef() {
	s.m.Lock()
	s.refs++
	s.m.Unlock()
}

func (s *Segment) DecRef() (err error) {
	s.m.Lock()
	s.refs--
	if s.refs == 0 {
		err = s.closeActual()
	}
	s.m.Unlock()
	return err
}

func (s *Segment) loadConfig() error {
	if len(s.mm) < FooterSize {
		return fmt.Errorf("file of %d bytes is too short for a footer", len(s.mm))
	}
	f := parseFooter(s.mm)

	s.crc = f.crc
	s.version = f.version
	if s.version != Version {
		return fmt.Errorf("unsupported version %d != %d", s.version, Version)
	}

	s.SegmentBase.mem = s.mm[:len(s.mm)-FooterSize]
	if sum := crc32.ChecksumIEEE(s.SegmentBase.mem); sum != s.crc {
		return fmt.Errorf("crc mismatch: footer has %08x, data has %08x", s.crc, sum)
	}
	s.memCRC = s.crc

	s.flags = f.flags
	s.numDocs = f.numDocs
	s.fieldsIndexOffset = f.fieldsIndexOffset
	return nil
}

// Path returns the path of this segment on disk
func (s *Segment) Path() string {
	return s.path
}

// Close releases all resources associated with this segment
func (s *Segment) Close() (err error) {
	return s.DecRef()
}

func (s *Segment) closeActual() (err error) {
	// drop the FSTs before un-mmapping the bytes they point into
	s.dictCache.Clear()

	if s.mm != nil {
		err = s.mm.Unmap()
	}
	// try to close file even if unmap failed
	if s.f != nil {
		err2 := s.f.Close()
		if err == nil {
			// try to return first error
			err = err2
		}
	}

	return
}

// some helpers for the command-line utility

// Data returns the underlying mmaped data slice
func (s *Segment) Data() []byte {
	return s.mm
}

// CRC returns the CRC value stored in the file footer
func (s *Segment) CRC() uint32 {
	return s.crc
}

// Version returns the file version in the file footer
func (s *Segment) Version() uint32 {
	return s.version
}
