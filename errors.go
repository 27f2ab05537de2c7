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
	"errors"
	"fmt"
)

var (
	// ErrCorruptValue is matched by every error raised for a term whose
	// bytes cannot be decoded under the active point format.
	ErrCorruptValue = errors.New("corrupt value")

	// ErrCorruptPostings is returned when a postings list references a
	// document outside the segment or lists documents out of order.
	ErrCorruptPostings = errors.New("corrupt postings")

	// ErrBudgetExceeded is matched by every limiter rejection.
	ErrBudgetExceeded = errors.New("field data budget exceeded")
)

// CorruptValueError describes a term that failed to decode.
type CorruptValueError struct {
	Field  string
	Format PointFormat
	Term   []byte
	Reason string
}

func (e *CorruptValueError) Error() string {
	return fmt.Sprintf("corrupt value in field %q (%s format): %s, term %x",
		e.Field, e.Format, e.Reason, e.Term)
}

func (e *CorruptValueError) Unwrap() error { return ErrCorruptValue }

// BudgetExceededError reports a rejected memory admission. The limiter's
// usage is left as it was before the request.
type BudgetExceededError struct {
	Label     string
	Requested int64
	Used      int64
	Limit     int64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("[%s] data too large, would use %d bytes on top of %d, limit %d",
		e.Label, e.Requested, e.Used, e.Limit)
}

func (e *BudgetExceededError) Unwrap() error { return ErrBudgetExceeded }
