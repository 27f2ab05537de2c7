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
	"errors"
	"math/rand"
	"sort"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testTerm struct {
	term []byte
	docs []uint32
}

// docIter yields docs exactly as given, out of order ones included.
type docIter struct {
	docs []uint32
	i    int
}

func (d *docIter) HasNext() bool { return d.i < len(d.docs) }

func (d *docIter) Next() uint32 {
	rv := d.docs[d.i]
	d.i++
	return rv
}

type sliceTermsEnum struct {
	terms  []testTerm
	i      int
	cur    Term
	err    error
	closed bool
}

// newSliceTerms returns an enum over terms in byte order.
func newSliceTerms(terms ...testTerm) *sliceTermsEnum {
	sort.Slice(terms, func(i, j int) bool {
		return bytes.Compare(terms[i].term, terms[j].term) < 0
	})
	return &sliceTermsEnum{terms: terms}
}

func (e *sliceTermsEnum) Next() (*Term, error) {
	if e.i >= len(e.terms) {
		return nil, e.err
	}
	t := e.terms[e.i]
	e.i++
	e.cur = Term{Term: t.term, Postings: &docIter{docs: t.docs}}
	return &e.cur, nil
}

func (e *sliceTermsEnum) Close() error {
	e.closed = true
	return nil
}

// termsOf returns the sorted terms indexing points, keyed by document.
// With prefixes set, hashed points also get their lower-precision terms.
func termsOf(t *testing.T, format PointFormat, points map[uint32][]GeoPoint, prefixes bool) []testTerm {
	t.Helper()
	docs := make([]uint32, 0, len(points))
	for doc := range points {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i] < docs[j] })

	byTerm := map[string][]uint32{}
	for _, doc := range docs {
		for _, p := range points[doc] {
			var terms [][]byte
			if prefixes {
				var err error
				terms, err = format.Terms(p)
				require.NoError(t, err)
			} else {
				term, err := format.EncodeTerm(p)
				require.NoError(t, err)
				terms = [][]byte{term}
			}
			for _, term := range terms {
				list := byTerm[string(term)]
				if len(list) > 0 && list[len(list)-1] == doc {
					continue
				}
				byTerm[string(term)] = append(list, doc)
			}
		}
	}

	rv := make([]testTerm, 0, len(byTerm))
	for term, docs := range byTerm {
		rv = append(rv, testTerm{term: []byte(term), docs: docs})
	}
	return rv
}

// stored returns p as it reads back from field data of the given format.
func stored(format PointFormat, p GeoPoint) GeoPoint {
	if format == FormatHashed {
		return MortonUnhash(MortonHash(p))
	}
	return p
}

func valuesOf(fd GeoPointFieldData, doc int) []GeoPoint {
	values := fd.Values()
	values.SetDocument(doc)
	var rv []GeoPoint
	for i := 0; i < values.Count(); i++ {
		rv = append(rv, values.ValueAt(i))
	}
	return rv
}

type recordingLimiter struct {
	admitted []int64
	released int64
	reject   bool
}

func (l *recordingLimiter) Admit(bytes int64, label string) error {
	if l.reject {
		return &BudgetExceededError{Label: label, Requested: bytes}
	}
	l.admitted = append(l.admitted, bytes)
	return nil
}

func (l *recordingLimiter) Release(bytes int64) {
	l.released += bytes
}

func configFor(format PointFormat) Config {
	cfg := DefaultConfig("location")
	cfg.Format = format
	return cfg
}

func TestLoadSingleValuedHashedIsFlattened(t *testing.T) {
	p1 := GeoPoint{Lat: 10, Lon: 20}
	p2 := GeoPoint{Lat: 30, Lon: 40}
	terms := termsOf(t, FormatHashed, map[uint32][]GeoPoint{
		0: {p1},
		1: {p2},
		2: {p1},
	}, false)

	limiter := &recordingLimiter{}
	fd, err := Load(newSliceTerms(terms...), 3, configFor(FormatHashed), limiter)
	require.NoError(t, err)
	defer fd.Close()

	require.Equal(t, ShapeFlat, ShapeOf(fd))
	assert.Equal(t, 3, fd.MaxDoc())
	assert.Equal(t, []GeoPoint{stored(FormatHashed, p1)}, valuesOf(fd, 0))
	assert.Equal(t, []GeoPoint{stored(FormatHashed, p2)}, valuesOf(fd, 1))
	assert.Equal(t, []GeoPoint{stored(FormatHashed, p1)}, valuesOf(fd, 2))

	flat := fd.(*flatFieldData)
	assert.Equal(t, int64(3), flat.values.size())
	assert.Equal(t, []uint32{0, 1, 2}, flat.docsWithValue.ToArray())

	require.Len(t, limiter.admitted, 1)
	assert.Equal(t, fd.RamBytesUsed(), limiter.admitted[0])
	assert.Greater(t, fd.RamBytesUsed(), int64(0))
}

func TestLoadMultiValuedKeepsOrdinals(t *testing.T) {
	p1 := GeoPoint{Lat: 10, Lon: 20}
	p2 := GeoPoint{Lat: 30, Lon: 40}
	terms := termsOf(t, FormatHashed, map[uint32][]GeoPoint{
		0: {p1},
		1: {p2},
		2: {p1, p2},
	}, false)

	limiter := &recordingLimiter{}
	fd, err := Load(newSliceTerms(terms...), 3, configFor(FormatHashed), limiter)
	require.NoError(t, err)
	defer fd.Close()

	require.Equal(t, ShapeOrdinals, ShapeOf(fd))
	ords := fd.(*ordinalsFieldData).Ordinals()
	assert.True(t, ords.IsMultiValued())
	assert.Equal(t, int64(2), ords.NumOrds())
	assert.Equal(t, []int64{0}, AppendOrds(nil, ords, 0))
	assert.Equal(t, []int64{1}, AppendOrds(nil, ords, 1))
	assert.Equal(t, []int64{0, 1}, AppendOrds(nil, ords, 2))

	assert.Equal(t, []GeoPoint{stored(FormatHashed, p1), stored(FormatHashed, p2)}, valuesOf(fd, 2))
	require.Len(t, limiter.admitted, 1)
	assert.Equal(t, fd.RamBytesUsed(), limiter.admitted[0])
}

func TestLoadZeroTerms(t *testing.T) {
	for _, terms := range []TermsEnum{nil, newSliceTerms()} {
		limiter := &recordingLimiter{}
		fd, err := Load(terms, 5, configFor(FormatHashed), limiter)
		require.NoError(t, err)

		assert.Equal(t, ShapeEmpty, ShapeOf(fd))
		assert.Equal(t, 5, fd.MaxDoc())
		for doc := 0; doc < 5; doc++ {
			assert.Empty(t, valuesOf(fd, doc))
		}
		require.Len(t, limiter.admitted, 1)
		assert.Greater(t, limiter.admitted[0], int64(0))
		assert.Equal(t, fd.RamBytesUsed(), limiter.admitted[0])
		require.NoError(t, fd.Close())
	}
}

func TestLoadLegacyTermOneByteShort(t *testing.T) {
	good, err := FormatLegacy.EncodeTerm(GeoPoint{Lat: 1, Lon: 2})
	require.NoError(t, err)
	short, err := FormatLegacy.EncodeTerm(GeoPoint{Lat: 3, Lon: 4})
	require.NoError(t, err)
	short = short[:len(short)-1]

	limiter := &recordingLimiter{}
	fd, err := Load(newSliceTerms(
		testTerm{term: good, docs: []uint32{0}},
		testTerm{term: short, docs: []uint32{1}},
	), 2, configFor(FormatLegacy), limiter)
	require.Error(t, err)
	assert.Nil(t, fd)
	assert.True(t, errors.Is(err, ErrCorruptValue))

	var cve *CorruptValueError
	require.True(t, errors.As(err, &cve))
	assert.Equal(t, "location", cve.Field)
	assert.Equal(t, FormatLegacy, cve.Format)
	assert.Equal(t, short, cve.Term)
	assert.Empty(t, limiter.admitted)
}

func TestLoadCorruptHashedTerms(t *testing.T) {
	full, err := FormatHashed.EncodeTerm(GeoPoint{Lat: 1, Lon: 2})
	require.NoError(t, err)

	badShift := append([]byte(nil), full...)
	badShift[0] = 0x10

	oddShift := append([]byte(nil), full...)
	oddShift[0] = hashedShiftPrefix + 5

	for name, term := range map[string][]byte{
		"short":     full[:8],
		"long":      append(append([]byte(nil), full...), 0),
		"bad shift": badShift,
		"odd shift": oddShift,
	} {
		t.Run(name, func(t *testing.T) {
			limiter := &recordingLimiter{}
			_, err := Load(newSliceTerms(testTerm{term: term, docs: []uint32{0}}),
				1, configFor(FormatHashed), limiter)
			assert.ErrorIs(t, err, ErrCorruptValue)
			assert.Empty(t, limiter.admitted)
		})
	}
}

func TestLoadLegacyOutOfRangeIsCorrupt(t *testing.T) {
	term := make([]byte, legacyTermLen)
	term[0] = 0x7f // a huge positive latitude
	_, err := Load(newSliceTerms(testTerm{term: term, docs: []uint32{0}}),
		1, configFor(FormatLegacy), nil)
	assert.ErrorIs(t, err, ErrCorruptValue)
}

func TestLoadCorruptPostings(t *testing.T) {
	term, err := FormatHashed.EncodeTerm(GeoPoint{Lat: 1, Lon: 2})
	require.NoError(t, err)

	for name, docs := range map[string][]uint32{
		"beyond max doc": {0, 4},
		"out of order":   {2, 1},
		"duplicate":      {1, 1},
	} {
		t.Run(name, func(t *testing.T) {
			limiter := &recordingLimiter{}
			fd, err := Load(newSliceTerms(testTerm{term: term, docs: docs}),
				3, configFor(FormatHashed), limiter)
			assert.ErrorIs(t, err, ErrCorruptPostings)
			assert.Nil(t, fd)
			assert.Empty(t, limiter.admitted)
		})
	}
}

func TestLoadTermsEnumError(t *testing.T) {
	boom := errors.New("boom")
	terms := newSliceTerms()
	terms.err = boom

	_, err := Load(terms, 1, configFor(FormatHashed), nil)
	assert.ErrorIs(t, err, boom)
}

func TestLoadBudgetRejectionLeavesLedgerUnchanged(t *testing.T) {
	terms := termsOf(t, FormatLegacy, map[uint32][]GeoPoint{
		0: {{Lat: 1, Lon: 1}},
		1: {{Lat: 2, Lon: 2}},
	}, false)

	breaker := NewBreaker(4096, nil)
	require.NoError(t, breaker.Admit(4000, "other"))

	fd, err := Load(newSliceTerms(terms...), 2, configFor(FormatLegacy), breaker)
	require.Error(t, err)
	assert.Nil(t, fd)
	assert.True(t, errors.Is(err, ErrBudgetExceeded))

	var bee *BudgetExceededError
	require.True(t, errors.As(err, &bee))
	assert.Equal(t, "location", bee.Label)
	assert.Equal(t, int64(4000), bee.Used)
	assert.Equal(t, int64(4096), bee.Limit)

	assert.Equal(t, int64(4000), breaker.Used())
	assert.Equal(t, int64(1), breaker.Trips())
}

func TestLoadBudgetRejectionOfEmptyStructure(t *testing.T) {
	breaker := NewBreaker(1, nil)
	_, err := Load(nil, 5, configFor(FormatHashed), breaker)
	assert.ErrorIs(t, err, ErrBudgetExceeded)
	assert.Equal(t, int64(0), breaker.Used())
}

func TestLoadRecoversPostings(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	const maxDoc = 500

	for _, format := range []PointFormat{FormatHashed, FormatLegacy} {
		t.Run(format.String(), func(t *testing.T) {
			pool := make([]GeoPoint, 40)
			for i := range pool {
				pool[i] = GeoPoint{Lat: r.Float64()*180 - 90, Lon: r.Float64()*360 - 180}
			}
			points := map[uint32][]GeoPoint{}
			for doc := uint32(0); doc < maxDoc; doc++ {
				n := r.Intn(4)
				seen := map[int]bool{}
				for i := 0; i < n; i++ {
					j := r.Intn(len(pool))
					if !seen[j] {
						seen[j] = true
						points[doc] = append(points[doc], pool[j])
					}
				}
			}

			fd, err := Load(newSliceTerms(termsOf(t, format, points, true)...),
				maxDoc, configFor(format), nil)
			require.NoError(t, err)
			defer fd.Close()

			for doc := 0; doc < maxDoc; doc++ {
				var want []GeoPoint
				for _, p := range points[uint32(doc)] {
					want = append(want, stored(format, p))
				}
				assert.ElementsMatch(t, want, valuesOf(fd, doc), "doc %d", doc)
			}
		})
	}
}

func TestLoadOrdinalsFollowTermOrder(t *testing.T) {
	points := map[uint32][]GeoPoint{}
	for doc := uint32(0); doc < 20; doc++ {
		points[doc] = []GeoPoint{{Lat: float64(doc) - 10, Lon: float64(doc) * 3}}
	}
	terms := newSliceTerms(termsOf(t, FormatHashed, points, true)...)

	cfg := configFor(FormatHashed)
	cfg.MemoryFormat = StorageOrdinals
	fd, err := Load(terms, 20, cfg, nil)
	require.NoError(t, err)
	defer fd.Close()

	// each point sorts after the previous one, so doc d holds ordinal d
	ords := fd.(*ordinalsFieldData).Ordinals()
	assert.Equal(t, int64(20), ords.NumOrds())
	for doc := 0; doc < 20; doc++ {
		assert.Equal(t, []int64{int64(doc)}, AppendOrds(nil, ords, doc))
	}
}

func TestLoadSkipsPrefixTerms(t *testing.T) {
	p := GeoPoint{Lat: 48.85, Lon: 2.35}
	terms := termsOf(t, FormatHashed, map[uint32][]GeoPoint{0: {p}, 3: {p}}, true)
	require.Greater(t, len(terms), 1)

	cfg := configFor(FormatHashed)
	cfg.MemoryFormat = StorageOrdinals
	fd, err := Load(newSliceTerms(terms...), 4, cfg, nil)
	require.NoError(t, err)
	defer fd.Close()

	assert.Equal(t, int64(1), fd.(*ordinalsFieldData).Ordinals().NumOrds())
	assert.Equal(t, []GeoPoint{stored(FormatHashed, p)}, valuesOf(fd, 3))
	assert.Empty(t, valuesOf(fd, 1))
}

// fixedTerms yields prepared terms as is, nil postings included.
type fixedTerms struct {
	terms []Term
	i     int
}

func (e *fixedTerms) Next() (*Term, error) {
	if e.i >= len(e.terms) {
		return nil, nil
	}
	e.i++
	return &e.terms[e.i-1], nil
}

func (e *fixedTerms) Close() error { return nil }

func TestLoadSkipsTermsWithoutDocs(t *testing.T) {
	points := []GeoPoint{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}, {Lat: 3, Lon: 3}}
	var encoded [][]byte
	for _, p := range points {
		term, err := FormatLegacy.EncodeTerm(p)
		require.NoError(t, err)
		encoded = append(encoded, term)
	}
	sort.Slice(encoded, func(i, j int) bool { return bytes.Compare(encoded[i], encoded[j]) < 0 })

	cfg := configFor(FormatLegacy)
	cfg.MemoryFormat = StorageOrdinals
	fd, err := Load(&fixedTerms{terms: []Term{
		{Term: encoded[0]},
		{Term: encoded[1], Postings: &docIter{}},
		{Term: encoded[2], Postings: &docIter{docs: []uint32{1}}},
	}}, 2, cfg, nil)
	require.NoError(t, err)
	defer fd.Close()

	ords := fd.(*ordinalsFieldData)
	assert.Equal(t, int64(1), ords.Ordinals().NumOrds())
	assert.Equal(t, int64(0), ords.Ordinals().OrdAt(1, 0))
	assert.Empty(t, valuesOf(fd, 0))
	require.Len(t, valuesOf(fd, 1), 1)

	want, _, err := FormatLegacy.DecodeTerm(encoded[2])
	require.NoError(t, err)
	assert.Equal(t, []GeoPoint{want}, valuesOf(fd, 1))

	// no doc holds any value
	fd, err = Load(&fixedTerms{terms: []Term{{Term: encoded[0]}}}, 2, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, ShapeEmpty, ShapeOf(fd))

	// corrupt terms are still rejected without docs
	_, err = Load(&fixedTerms{terms: []Term{{Term: []byte{1}}}}, 2, cfg, nil)
	assert.ErrorIs(t, err, ErrCorruptValue)
}

func TestLoadFlatteningEquivalence(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	const maxDoc = 300

	for _, format := range []PointFormat{FormatHashed, FormatLegacy} {
		t.Run(format.String(), func(t *testing.T) {
			points := map[uint32][]GeoPoint{}
			for doc := uint32(0); doc < maxDoc; doc++ {
				if r.Intn(3) == 0 {
					continue
				}
				points[doc] = []GeoPoint{{Lat: float64(r.Intn(90)), Lon: float64(r.Intn(180))}}
			}
			terms := termsOf(t, format, points, true)

			flatCfg := configFor(format)
			flat, err := Load(newSliceTerms(terms...), maxDoc, flatCfg, nil)
			require.NoError(t, err)
			defer flat.Close()

			ordCfg := configFor(format)
			ordCfg.MemoryFormat = StorageOrdinals
			ord, err := Load(newSliceTerms(terms...), maxDoc, ordCfg, nil)
			require.NoError(t, err)
			defer ord.Close()

			require.Equal(t, ShapeFlat, ShapeOf(flat))
			require.Equal(t, ShapeOrdinals, ShapeOf(ord))
			for doc := 0; doc < maxDoc; doc++ {
				assert.Equal(t, valuesOf(ord, doc), valuesOf(flat, doc), "doc %d", doc)
			}
		})
	}
}

func TestLoadIdempotent(t *testing.T) {
	terms := termsOf(t, FormatLegacy, map[uint32][]GeoPoint{
		0: {{Lat: 1, Lon: 1}, {Lat: 5, Lon: 5}},
		2: {{Lat: 1, Lon: 1}},
		3: {{Lat: -7, Lon: 100}},
	}, false)

	limiter := &recordingLimiter{}
	first, err := Load(newSliceTerms(terms...), 4, configFor(FormatLegacy), limiter)
	require.NoError(t, err)
	second, err := Load(newSliceTerms(terms...), 4, configFor(FormatLegacy), limiter)
	require.NoError(t, err)

	for doc := 0; doc < 4; doc++ {
		assert.Equal(t, valuesOf(first, doc), valuesOf(second, doc))
	}
	assert.Equal(t, first.RamBytesUsed(), second.RamBytesUsed())
	assert.Equal(t, []int64{first.RamBytesUsed(), second.RamBytesUsed()}, limiter.admitted)
}

func TestLoadFlattenPolicy(t *testing.T) {
	single := termsOf(t, FormatHashed, map[uint32][]GeoPoint{
		0: {{Lat: 1, Lon: 1}},
		1: {{Lat: 2, Lon: 2}},
	}, false)
	multi := termsOf(t, FormatHashed, map[uint32][]GeoPoint{
		0: {{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}},
	}, false)

	tests := []struct {
		name   string
		terms  []testTerm
		hint   MemoryStorageFormat
		policy FlattenPolicy
		want   Shape
	}{
		{"array hint", single, StorageArray, HintOverrides, ShapeFlat},
		{"ordinals hint", single, StorageOrdinals, HintOverrides, ShapeOrdinals},
		{"ordinals hint shape only", single, StorageOrdinals, ShapeOnly, ShapeFlat},
		{"multi valued shape only", multi, StorageArray, ShapeOnly, ShapeOrdinals},
		{"multi valued array hint", multi, StorageArray, HintOverrides, ShapeOrdinals},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := configFor(FormatHashed)
			cfg.MemoryFormat = test.hint
			cfg.FlattenPolicy = test.policy
			fd, err := Load(newSliceTerms(test.terms...), 2, cfg, nil)
			require.NoError(t, err)
			assert.Equal(t, test.want, ShapeOf(fd))
		})
	}
}

func TestLoadReportsFinalRepresentation(t *testing.T) {
	points := map[uint32][]GeoPoint{}
	for doc := uint32(0); doc < 1000; doc += 2 {
		points[doc] = []GeoPoint{{Lat: float64(doc%90) / 2, Lon: float64(doc % 180)}}
	}
	terms := termsOf(t, FormatLegacy, points, false)

	flatLimiter := &recordingLimiter{}
	flat, err := Load(newSliceTerms(terms...), 1000, configFor(FormatLegacy), flatLimiter)
	require.NoError(t, err)

	ordCfg := configFor(FormatLegacy)
	ordCfg.MemoryFormat = StorageOrdinals
	ordLimiter := &recordingLimiter{}
	ord, err := Load(newSliceTerms(terms...), 1000, ordCfg, ordLimiter)
	require.NoError(t, err)

	assert.Equal(t, []int64{flat.RamBytesUsed()}, flatLimiter.admitted)
	assert.Equal(t, []int64{ord.RamBytesUsed()}, ordLimiter.admitted)
	assert.NotEqual(t, flat.RamBytesUsed(), ord.RamBytesUsed())
}

func TestLoadOverheadRatioChangesRepresentationOnly(t *testing.T) {
	points := map[uint32][]GeoPoint{}
	for doc := uint32(0); doc < 200; doc++ {
		points[doc] = []GeoPoint{
			{Lat: float64(doc % 50), Lon: 1},
			{Lat: float64(doc%50) + 0.5, Lon: 1},
		}
	}
	terms := termsOf(t, FormatLegacy, points, false)

	compactCfg := configFor(FormatLegacy)
	compactCfg.AcceptableOverheadRatio = Compact
	compact, err := Load(newSliceTerms(terms...), 200, compactCfg, nil)
	require.NoError(t, err)

	fastestCfg := configFor(FormatLegacy)
	fastestCfg.AcceptableOverheadRatio = Fastest
	fastest, err := Load(newSliceTerms(terms...), 200, fastestCfg, nil)
	require.NoError(t, err)

	for doc := 0; doc < 200; doc++ {
		assert.Equal(t, valuesOf(compact, doc), valuesOf(fastest, doc))
	}
	assert.Less(t, compact.RamBytesUsed(), fastest.RamBytesUsed())
}

func TestLoadMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	l, err := NewLoader(configFor(FormatHashed), nil, WithMetrics(metrics))
	require.NoError(t, err)
	terms := termsOf(t, FormatHashed, map[uint32][]GeoPoint{0: {{Lat: 1, Lon: 1}}}, false)
	_, err = l.Load(newSliceTerms(terms...), 1)
	require.NoError(t, err)

	bad, err := NewLoader(configFor(FormatLegacy), nil, WithMetrics(metrics))
	require.NoError(t, err)
	_, err = bad.Load(newSliceTerms(testTerm{term: []byte{1, 2, 3}, docs: []uint32{0}}), 1)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LoadsTotal.WithLabelValues("hashed", "flat", "ok")))
	_, err = l.Load(nil, 4)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LoadsTotal.WithLabelValues("legacy", "none", "corrupt")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LoadsTotal.WithLabelValues("hashed", "empty", "ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.LoadsTotal.WithLabelValues("legacy", "empty", "corrupt")))
	assert.Equal(t, 2, testutil.CollectAndCount(metrics.LoadDuration))
}

func TestNewLoaderRejectsInvalidConfig(t *testing.T) {
	for name, cfg := range map[string]Config{
		"format":  {Field: "f", Format: PointFormat(9)},
		"ratio":   {Field: "f", AcceptableOverheadRatio: -1},
		"storage": {Field: "f", MemoryFormat: MemoryStorageFormat(5)},
		"policy":  {Field: "f", FlattenPolicy: FlattenPolicy(5)},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewLoader(cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestParseLoaderEnums(t *testing.T) {
	m, err := ParseMemoryStorageFormat("Ordinals")
	require.NoError(t, err)
	assert.Equal(t, StorageOrdinals, m)
	m, err = ParseMemoryStorageFormat("")
	require.NoError(t, err)
	assert.Equal(t, StorageArray, m)
	_, err = ParseMemoryStorageFormat("disk")
	assert.Error(t, err)

	p, err := ParseFlattenPolicy("shape_only")
	require.NoError(t, err)
	assert.Equal(t, ShapeOnly, p)
	p, err = ParseFlattenPolicy("")
	require.NoError(t, err)
	assert.Equal(t, HintOverrides, p)
	_, err = ParseFlattenPolicy("always")
	assert.Error(t, err)
}
