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
	"sync"

	"github.com/blevesearch/vellum"
)

func newDictCache() *dictCache {
	return &dictCache{
		cache: make(map[uint16]*vellum.FST),
	}
}

// dictCache holds the term dictionary FST of each field once it has been
// loaded from the segment bytes.
type dictCache struct {
	m sync.RWMutex

	cache map[uint16]*vellum.FST
}

// Clear drops every cached FST. Must be called before the backing memory
// is unmapped.
func (dc *dictCache) Clear() {
	dc.m.Lock()
	dc.cache = nil
	dc.m.Unlock()
}

// loadOrCreate returns the FST of fieldID, parsing it from mem on first use.
// mem starts at the uvarint length prefix of the FST.
func (dc *dictCache) loadOrCreate(fieldID uint16, mem []byte) (*vellum.FST, error) {
	dc.m.RLock()
	fst, ok := dc.cache[fieldID]
	dc.m.RUnlock()
	if ok {
		return fst, nil
	}

	dc.m.Lock()
	defer dc.m.Unlock()

	fst, ok = dc.cache[fieldID]
	if ok {
		return fst, nil
	}

	return dc.createAndCacheLOCKED(fieldID, mem)
}

func (dc *dictCache) createAndCacheLOCKED(fieldID uint16, mem []byte) (*vellum.FST, error) {
	vellumLen, read := binary.Uvarint(mem)
	if vellumLen == 0 || read <= 0 {
		return nil, fmt.Errorf("vellum length is 0")
	}
	if uint64(len(mem)-read) < vellumLen {
		return nil, fmt.Errorf("vellum length %d exceeds segment data", vellumLen)
	}
	fst, err := vellum.Load(mem[read : uint64(read)+vellumLen])
	if err != nil {
		return nil, fmt.Errorf("vellum err: %v", err)
	}
	if dc.cache == nil {
		dc.cache = make(map[uint16]*vellum.FST)
	}
	dc.cache[fieldID] = fst
	return fst, nil
}
