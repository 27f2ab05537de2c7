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
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn", "json")

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept", "field", "location")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "location", entry["field"])
}

func TestNewLoggerText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "bogus", "")

	logger.Debug("dropped")
	assert.Zero(t, buf.Len())

	logger.Info("loaded", "bytes", 42)
	assert.Contains(t, buf.String(), "msg=loaded")
	assert.Contains(t, buf.String(), "bytes=42")
}

func TestLoaderLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLoader(DefaultConfig("location"), &recordingLimiter{reject: true},
		WithLogger(NewLogger(&buf, "debug", "json")))
	require.NoError(t, err)

	_, err = l.Load(nil, 3)
	require.ErrorIs(t, err, ErrBudgetExceeded)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "location", entry["field"])
	assert.Equal(t, "hashed", entry["format"])
}
