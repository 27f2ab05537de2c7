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
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// LoadFields loads several fields of one segment concurrently, all of them
// reporting to limiter. Either every field is returned, or none is: when a
// load fails, the structures loaded so far are released back to limiter and
// closed before the first error is returned.
func LoadFields(ctx context.Context, sb *SegmentBase, configs []Config,
	limiter MemoryLimiter, opts ...Option) (map[string]GeoPointFieldData, error) {
	seen := make(map[string]struct{}, len(configs))
	for _, cfg := range configs {
		if _, dup := seen[cfg.Field]; dup {
			return nil, fmt.Errorf("field %q requested twice", cfg.Field)
		}
		seen[cfg.Field] = struct{}{}
	}

	o := buildOptions(opts)

	var m sync.Mutex
	rv := make(map[string]GeoPointFieldData, len(configs))

	g, gctx := errgroup.WithContext(ctx)
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}
	for _, cfg := range configs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			l, err := NewLoader(cfg, limiter, opts...)
			if err != nil {
				return err
			}
			fd, err := l.LoadField(sb)
			if err != nil {
				return err
			}
			m.Lock()
			rv[cfg.Field] = fd
			m.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for field, fd := range rv {
			if limiter != nil {
				limiter.Release(fd.RamBytesUsed())
			}
			_ = fd.Close()
			delete(rv, field)
		}
		return nil, err
	}
	return rv, nil
}
