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

// memoryEstimator reports a finished structure to the limiter. It does not
// estimate ahead of loading: the size is only known once the final
// representation has been chosen.
type memoryEstimator struct {
	limiter MemoryLimiter
	label   string
}

// afterLoad charges the footprint of fd, exactly once per built structure.
func (e memoryEstimator) afterLoad(fd GeoPointFieldData) error {
	if e.limiter == nil {
		return nil
	}
	return e.limiter.Admit(fd.RamBytesUsed(), e.label)
}
