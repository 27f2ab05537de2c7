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
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings is the file and environment configuration of field data loading.
type Settings struct {
	Breaker     BreakerSettings          `yaml:"breaker"`
	Logging     LoggingSettings          `yaml:"logging"`
	Concurrency int                      `yaml:"concurrency"`
	Defaults    FieldSettings            `yaml:"defaults"`
	Fields      map[string]FieldSettings `yaml:"fields"`
}

type BreakerSettings struct {
	Limit ByteSize `yaml:"limit"`
}

type LoggingSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// FieldSettings holds the per field loading knobs. Empty values inherit
// from the defaults.
type FieldSettings struct {
	Format                           string   `yaml:"format"`
	AcceptableTransientOverheadRatio *float32 `yaml:"acceptable_transient_overhead_ratio"`
	MemoryStorage                    string   `yaml:"memory_storage"`
	FlattenPolicy                    string   `yaml:"flatten_policy"`
}

// ByteSize is a byte count written either as a plain integer or with a
// kb, mb or gb suffix.
type ByteSize int64

func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	n, err := ParseByteSize(value.Value)
	if err != nil {
		return err
	}
	*b = ByteSize(n)
	return nil
}

// ParseByteSize parses "1048576", "512kb", "64mb" or "2gb".
func ParseByteSize(s string) (int64, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	mult := int64(1)
	for _, unit := range []struct {
		suffix string
		mult   int64
	}{
		{"kb", 1 << 10},
		{"mb", 1 << 20},
		{"gb", 1 << 30},
		{"b", 1},
	} {
		if strings.HasSuffix(v, unit.suffix) {
			v = strings.TrimSpace(strings.TrimSuffix(v, unit.suffix))
			mult = unit.mult
			break
		}
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid byte size %q", s)
	}
	if n > math.MaxInt64/mult {
		return 0, fmt.Errorf("byte size %q overflows int64", s)
	}
	return n * mult, nil
}

// DefaultSettings returns the settings used when no file is given.
func DefaultSettings() *Settings {
	return &Settings{
		Logging: LoggingSettings{
			Level:  "info",
			Format: "text",
		},
		Defaults: FieldSettings{
			Format:        FormatHashed.String(),
			MemoryStorage: StorageArray.String(),
			FlattenPolicy: HintOverrides.String(),
		},
	}
}

// LoadSettings reads a YAML settings file (if provided) and applies
// environment variable overrides.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading settings file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("parsing settings file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(s); err != nil {
		return nil, err
	}
	return s, nil
}

// applyEnvOverrides reads FIELDDATA_* environment variables.
func applyEnvOverrides(s *Settings) error {
	if v := os.Getenv("FIELDDATA_BREAKER_LIMIT"); v != "" {
		n, err := ParseByteSize(v)
		if err != nil {
			return fmt.Errorf("FIELDDATA_BREAKER_LIMIT: %w", err)
		}
		s.Breaker.Limit = ByteSize(n)
	}
	if v := os.Getenv("FIELDDATA_LOG_LEVEL"); v != "" {
		s.Logging.Level = v
	}
	if v := os.Getenv("FIELDDATA_LOG_FORMAT"); v != "" {
		s.Logging.Format = v
	}
	return nil
}

// FieldConfig returns the validated Config of field, the field's own
// settings layered over the defaults.
func (s *Settings) FieldConfig(field string) (Config, error) {
	fs := s.Defaults
	if override, ok := s.Fields[field]; ok {
		fs = fs.merge(override)
	}
	return fs.Config(field)
}

// Configs returns the Config of each of fields.
func (s *Settings) Configs(fields []string) ([]Config, error) {
	rv := make([]Config, 0, len(fields))
	for _, field := range fields {
		cfg, err := s.FieldConfig(field)
		if err != nil {
			return nil, err
		}
		rv = append(rv, cfg)
	}
	return rv, nil
}

func (fs FieldSettings) merge(o FieldSettings) FieldSettings {
	if o.Format != "" {
		fs.Format = o.Format
	}
	if o.AcceptableTransientOverheadRatio != nil {
		fs.AcceptableTransientOverheadRatio = o.AcceptableTransientOverheadRatio
	}
	if o.MemoryStorage != "" {
		fs.MemoryStorage = o.MemoryStorage
	}
	if o.FlattenPolicy != "" {
		fs.FlattenPolicy = o.FlattenPolicy
	}
	return fs
}

// Config converts the settings into a validated Config for field.
func (fs FieldSettings) Config(field string) (Config, error) {
	cfg := DefaultConfig(field)

	var err error
	cfg.Format, err = ParsePointFormat(fs.Format)
	if err != nil {
		return Config{}, fmt.Errorf("field %q: %w", field, err)
	}
	if fs.AcceptableTransientOverheadRatio != nil {
		cfg.AcceptableOverheadRatio = *fs.AcceptableTransientOverheadRatio
	}
	cfg.MemoryFormat, err = ParseMemoryStorageFormat(fs.MemoryStorage)
	if err != nil {
		return Config{}, fmt.Errorf("field %q: %w", field, err)
	}
	cfg.FlattenPolicy, err = ParseFlattenPolicy(fs.FlattenPolicy)
	if err != nil {
		return Config{}, fmt.Errorf("field %q: %w", field, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
