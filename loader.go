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
	"log/slog"
	"math"
	"strings"
	"time"
)

// initial number of ordinal table slots, grown on demand
const initialTableSize = 128

// MemoryStorageFormat is the per field storage hint.
type MemoryStorageFormat uint8

const (
	// StorageArray allows single valued fields to be flattened.
	StorageArray MemoryStorageFormat = iota
	// StorageOrdinals asks for ordinal backed storage.
	StorageOrdinals
)

func (m MemoryStorageFormat) String() string {
	if m == StorageOrdinals {
		return "ordinals"
	}
	return "array"
}

// ParseMemoryStorageFormat maps a hint name to its MemoryStorageFormat.
func ParseMemoryStorageFormat(s string) (MemoryStorageFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "array", "paged":
		return StorageArray, nil
	case "ordinals":
		return StorageOrdinals, nil
	}
	return 0, fmt.Errorf("unknown memory storage format %q", s)
}

// FlattenPolicy decides how the storage hint and the shape of the data
// combine when choosing between flat and ordinal storage.
type FlattenPolicy uint8

const (
	// HintOverrides flattens only single valued data whose hint is not
	// StorageOrdinals.
	HintOverrides FlattenPolicy = iota
	// ShapeOnly flattens any single valued data and ignores the hint.
	ShapeOnly
)

func (p FlattenPolicy) String() string {
	if p == ShapeOnly {
		return "shape_only"
	}
	return "hint_overrides"
}

// ParseFlattenPolicy maps a policy name to its FlattenPolicy.
func ParseFlattenPolicy(s string) (FlattenPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hint_overrides":
		return HintOverrides, nil
	case "shape_only":
		return ShapeOnly, nil
	}
	return 0, fmt.Errorf("unknown flatten policy %q", s)
}

// Config describes how one geo point field is loaded.
type Config struct {
	// Field labels breaker accounting and log lines.
	Field string
	// Format is the term layout of the field.
	Format PointFormat
	// AcceptableOverheadRatio bounds the extra bits per ordinal spent on
	// byte aligned storage. NaN selects DefaultAcceptableOverheadRatio.
	AcceptableOverheadRatio float32
	MemoryFormat            MemoryStorageFormat
	FlattenPolicy           FlattenPolicy
}

// DefaultConfig returns the configuration used when a field has no
// settings of its own.
func DefaultConfig(field string) Config {
	return Config{
		Field:                   field,
		Format:                  FormatHashed,
		AcceptableOverheadRatio: DefaultAcceptableOverheadRatio,
		MemoryFormat:            StorageArray,
		FlattenPolicy:           HintOverrides,
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if !c.Format.valid() {
		return fmt.Errorf("field %q: unknown point format %d", c.Field, c.Format)
	}
	if c.AcceptableOverheadRatio < 0 || math.IsInf(float64(c.AcceptableOverheadRatio), 0) {
		return fmt.Errorf("field %q: invalid acceptable overhead ratio %v",
			c.Field, c.AcceptableOverheadRatio)
	}
	if c.MemoryFormat > StorageOrdinals {
		return fmt.Errorf("field %q: unknown memory storage format %d", c.Field, c.MemoryFormat)
	}
	if c.FlattenPolicy > ShapeOnly {
		return fmt.Errorf("field %q: unknown flatten policy %d", c.Field, c.FlattenPolicy)
	}
	return nil
}

func (c Config) overheadRatio() float32 {
	if math.IsNaN(float64(c.AcceptableOverheadRatio)) {
		return DefaultAcceptableOverheadRatio
	}
	return c.AcceptableOverheadRatio
}

// flatten reports whether ordinals of the given shape collapse into a flat
// per document column.
func (c Config) flatten(multiValued bool) bool {
	if multiValued {
		return false
	}
	if c.FlattenPolicy == ShapeOnly {
		return true
	}
	return c.MemoryFormat != StorageOrdinals
}

type options struct {
	logger      *slog.Logger
	metrics     *Metrics
	concurrency int
}

// Option configures a Loader.
type Option func(*options)

// WithLogger sets the logger. nil discards log output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics records load metrics on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithConcurrency bounds the number of fields LoadFields loads at once.
// Values < 1 mean one load per field.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Loader loads geo point field data for one field configuration. A Loader
// holds no per load state and may be used from several goroutines.
type Loader struct {
	cfg       Config
	estimator memoryEstimator
	logger    *slog.Logger
	metrics   *Metrics
}

// NewLoader returns a Loader reporting to limiter. limiter may be nil, in
// which case nothing is accounted.
func NewLoader(cfg Config, limiter MemoryLimiter, opts ...Option) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	return &Loader{
		cfg:       cfg,
		estimator: memoryEstimator{limiter: limiter, label: cfg.Field},
		logger:    o.logger.With("field", cfg.Field, "format", cfg.Format.String()),
		metrics:   o.metrics,
	}, nil
}

// Load builds the field data of one segment from terms.
func Load(terms TermsEnum, maxDoc int, cfg Config, limiter MemoryLimiter) (GeoPointFieldData, error) {
	l, err := NewLoader(cfg, limiter)
	if err != nil {
		return nil, err
	}
	return l.Load(terms, maxDoc)
}

// LoadField loads the field data of the loader's field from sb.
func (l *Loader) LoadField(sb *SegmentBase) (GeoPointFieldData, error) {
	terms, err := sb.Terms(l.cfg.Field)
	if err != nil {
		return nil, err
	}
	defer terms.Close()
	return l.Load(terms, int(sb.NumDocs()))
}

// Load consumes terms and returns the field data for a segment of maxDoc
// documents. The finished structure is admitted by the limiter before it is
// returned; on any error nothing is admitted and nothing is returned.
func (l *Loader) Load(terms TermsEnum, maxDoc int) (GeoPointFieldData, error) {
	start := time.Now()
	rv, err := l.load(terms, maxDoc)
	if err != nil {
		l.metrics.observeLoad(l.cfg.Format, shapeNone, resultOf(err), time.Since(start))
		if errors.Is(err, ErrBudgetExceeded) {
			l.logger.Warn("field data breaker tripped", "error", err)
		} else {
			l.logger.Warn("field data load failed", "error", err)
		}
		return nil, err
	}
	shape := ShapeOf(rv)
	l.metrics.observeLoad(l.cfg.Format, shape.String(), "ok", time.Since(start))
	l.logger.Debug("field data loaded",
		"shape", shape.String(),
		"max_doc", maxDoc,
		"bytes", rv.RamBytesUsed(),
		"took", time.Since(start),
	)
	return rv, nil
}

func resultOf(err error) string {
	switch {
	case errors.Is(err, ErrBudgetExceeded):
		return "budget_exceeded"
	case errors.Is(err, ErrCorruptValue), errors.Is(err, ErrCorruptPostings):
		return "corrupt"
	}
	return "error"
}

func (l *Loader) load(terms TermsEnum, maxDoc int) (GeoPointFieldData, error) {
	if maxDoc < 0 {
		return nil, fmt.Errorf("invalid max doc %d", maxDoc)
	}
	if terms == nil {
		terms = emptyTerms
	}

	builder := NewOrdinalsBuilder(maxDoc, l.cfg.overheadRatio())
	defer builder.Close()

	format := l.cfg.Format
	table := format.newColumn(initialTableSize)
	for {
		t, err := terms.Next()
		if err != nil {
			return nil, fmt.Errorf("field %q: reading terms: %w", l.cfg.Field, err)
		}
		if t == nil {
			break
		}
		v, ok, reason := format.decode(t.Term)
		if reason != "" {
			return nil, &CorruptValueError{
				Field:  l.cfg.Field,
				Format: format,
				Term:   append([]byte(nil), t.Term...),
				Reason: reason,
			}
		}
		// a value no document holds gets no ordinal
		if !ok || t.Postings == nil || !t.Postings.HasNext() {
			continue
		}
		ord := builder.NextOrdinal()
		table.grow(ord + 1)
		table.set(ord, v)
		for t.Postings.HasNext() {
			if err := builder.AddDoc(int(t.Postings.Next())); err != nil {
				return nil, fmt.Errorf("field %q: %w", l.cfg.Field, err)
			}
		}
	}

	var rv GeoPointFieldData
	numOrds := builder.NumOrds()
	if numOrds == 0 {
		rv = newEmptyFieldData(maxDoc)
	} else {
		table.resize(numOrds)
		ords := builder.Build()
		if l.cfg.flatten(ords.IsMultiValued()) {
			values := format.newColumn(int64(maxDoc))
			for doc := 0; doc < maxDoc; doc++ {
				if ords.Cardinality(doc) > 0 {
					values.set(int64(doc), table.get(ords.OrdAt(doc, 0)))
				}
			}
			rv = newFlatFieldData(values, builder.DocsWithValue(), maxDoc)
		} else {
			rv = newOrdinalsFieldData(table, ords, maxDoc)
		}
	}

	if err := l.estimator.afterLoad(rv); err != nil {
		_ = rv.Close()
		return nil, err
	}
	return rv, nil
}
