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
	"github.com/RoaringBitmap/roaring/v2"
)

// Term is one entry of a field's term dictionary.
type Term struct {
	Term     []byte
	Postings roaring.IntIterable
}

// TermsEnum walks the terms of one field of one segment in ascending byte
// order.
type TermsEnum interface {
	// Next returns the next term, or nil once the enum is exhausted. The
	// returned Term is only valid until the following call to Next.
	Next() (*Term, error)
	Close() error
}

type emptyTermsEnum struct{}

func (emptyTermsEnum) Next() (*Term, error) { return nil, nil }
func (emptyTermsEnum) Close() error         { return nil }

// represents an exhausted enum, for fields absent from a segment
var emptyTerms TermsEnum = emptyTermsEnum{}
