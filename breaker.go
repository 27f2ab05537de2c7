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
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// MemoryLimiter is the shared memory ledger that field data loads report
// to. Implementations must be safe for concurrent use.
type MemoryLimiter interface {
	// Admit charges bytes against the limit. On rejection it returns an
	// error matching ErrBudgetExceeded and leaves usage unchanged.
	Admit(bytes int64, label string) error
	// Release returns bytes previously admitted.
	Release(bytes int64)
}

// Breaker is a MemoryLimiter with a hard byte limit. Admissions never
// block: a request that does not fit is rejected immediately and the
// caller decides what to do next.
type Breaker struct {
	limit   int64
	sem     *semaphore.Weighted // nil when unlimited
	used    atomic.Int64
	trips   atomic.Int64
	metrics *Metrics
}

// NewBreaker returns a Breaker enforcing limit bytes. A limit <= 0 only
// tracks usage. metrics may be nil.
func NewBreaker(limit int64, metrics *Metrics) *Breaker {
	b := &Breaker{metrics: metrics}
	if limit > 0 {
		b.limit = limit
		b.sem = semaphore.NewWeighted(limit)
	}
	metrics.setBreakerLimit(b.limit)
	return b
}

// Admit implements MemoryLimiter.
func (b *Breaker) Admit(bytes int64, label string) error {
	if bytes <= 0 {
		return nil
	}
	if b.sem != nil && !b.sem.TryAcquire(bytes) {
		b.trips.Add(1)
		b.metrics.breakerTripped()
		return &BudgetExceededError{
			Label:     label,
			Requested: bytes,
			Used:      b.used.Load(),
			Limit:     b.limit,
		}
	}
	b.metrics.setBreakerUsed(b.used.Add(bytes))
	return nil
}

// Release implements MemoryLimiter.
func (b *Breaker) Release(bytes int64) {
	if bytes <= 0 {
		return
	}
	// the ledger drops before the permits return so Used never exceeds limit
	used := b.used.Add(-bytes)
	if b.sem != nil {
		b.sem.Release(bytes)
	}
	b.metrics.setBreakerUsed(used)
}

// Used returns the bytes currently admitted.
func (b *Breaker) Used() int64 {
	return b.used.Load()
}

// Limit returns the configured limit, 0 when unlimited.
func (b *Breaker) Limit() int64 {
	return b.limit
}

// Trips returns how many admissions were rejected.
func (b *Breaker) Trips() int64 {
	return b.trips.Load()
}
