//  Copyright (c) 2018 Couchbase, Inc.
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
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/blevesearch/vellum"
)

// termsEnum walks a field's vellum FST, resolving each term's postings
// offset against the segment.
type termsEnum struct {
	sb      *SegmentBase
	itr     vellum.Iterator
	started bool

	postings *roaring.Bitmap
	buf      []byte
	term     Term
}

func newTermsEnum(sb *SegmentBase, fst *vellum.FST) (TermsEnum, error) {
	itr, err := fst.Iterator(nil, nil)
	if err == vellum.ErrIteratorDone {
		return emptyTerms, nil
	}
	if err != nil {
		return nil, err
	}
	return &termsEnum{
		sb:       sb,
		itr:      itr,
		postings: roaring.New(),
	}, nil
}

func (e *termsEnum) Next() (*Term, error) {
	if e.itr == nil {
		return nil, nil
	}
	if e.started {
		err := e.itr.Next()
		if err == vellum.ErrIteratorDone {
			_ = e.Close()
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
	}
	e.started = true

	key, offset := e.itr.Current()
	var err error
	e.buf, err = e.sb.postingsAt(offset, e.postings, e.buf)
	if err != nil {
		return nil, err
	}

	e.term.Term = key
	e.term.Postings = e.postings.Iterator()
	return &e.term, nil
}

func (e *termsEnum) Close() error {
	if e.itr == nil {
		return nil
	}
	err := e.itr.Close()
	e.itr = nil
	return err
}
