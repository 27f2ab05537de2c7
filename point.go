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
)

const (
	minLat = -90.0
	maxLat = 90.0
	minLon = -180.0
	maxLon = 180.0

	latScale = float64(1<<32) / (maxLat - minLat)
	lonScale = float64(1<<32) / (maxLon - minLon)
)

// GeoPoint is a latitude/longitude pair in degrees.
type GeoPoint struct {
	Lat float64
	Lon float64
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lon)
}

// Valid reports whether both coordinates are finite and within range.
func (p GeoPoint) Valid() bool {
	return p.Lat >= minLat && p.Lat <= maxLat &&
		p.Lon >= minLon && p.Lon <= maxLon
}

// MortonHash interleaves the 32 bit scaled longitude (even bits) and
// latitude (odd bits) of p.
func MortonHash(p GeoPoint) uint64 {
	return interleave(scaleLon(p.Lon)) | interleave(scaleLat(p.Lat))<<1
}

// MortonUnhash returns the point encoded by h. Decoded coordinates are
// accurate to roughly 1e-7 degrees.
func MortonUnhash(h uint64) GeoPoint {
	return GeoPoint{
		Lat: unscaleLat(deinterleave(h >> 1)),
		Lon: unscaleLon(deinterleave(h)),
	}
}

func scaleLat(lat float64) uint32 {
	v := math.Floor((lat - minLat) * latScale)
	if v >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

func scaleLon(lon float64) uint32 {
	v := math.Floor((lon - minLon) * lonScale)
	if v >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

func unscaleLat(v uint32) float64 {
	return float64(v)/latScale + minLat
}

func unscaleLon(v uint32) float64 {
	return float64(v)/lonScale + minLon
}

// interleave spreads the 32 bits of v over the even bits of a uint64.
func interleave(v uint32) uint64 {
	x := uint64(v)
	x = (x | x<<16) & 0x0000FFFF0000FFFF
	x = (x | x<<8) & 0x00FF00FF00FF00FF
	x = (x | x<<4) & 0x0F0F0F0F0F0F0F0F
	x = (x | x<<2) & 0x3333333333333333
	x = (x | x<<1) & 0x5555555555555555
	return x
}

// deinterleave collects the even bits of v.
func deinterleave(v uint64) uint32 {
	x := v & 0x5555555555555555
	x = (x | x>>1) & 0x3333333333333333
	x = (x | x>>2) & 0x0F0F0F0F0F0F0F0F
	x = (x | x>>4) & 0x00FF00FF00FF00FF
	x = (x | x>>8) & 0x0000FFFF0000FFFF
	x = (x | x>>16) & 0x00000000FFFFFFFF
	return uint32(x)
}
