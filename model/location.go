// Copyright 2017-25 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import (
	"fmt"
	"math"
)

// UndefinedCoordinate is the sentinel fixed-point value a Location's Lon or
// Lat carries when the location itself is undefined, e.g. an invisible
// node.
const UndefinedCoordinate int32 = math.MaxInt32

// Location is a longitude/latitude pair stored at 10^-7-degree fixed-point
// precision, the canonical precision the decoder normalises every PBF
// coordinate to regardless of the file's granularity/offset. It is the
// on-arena representation of a Node's position and of each NodeRef in a
// WayNodeList/OuterRing/InnerRing.
type Location struct {
	lon int32
	lat int32
}

// UndefinedLocation is the zero value callers should use for "no location",
// e.g. an invisible node. The zero Location{} is NOT undefined (0,0 is a
// valid point in the Gulf of Guinea); only UndefinedLocation is.
var UndefinedLocation = Location{lon: UndefinedCoordinate, lat: UndefinedCoordinate}

// NewLocation builds a Location from decimal degrees, rounding to the
// nearest 10^-7 degree.
func NewLocation(lon, lat Degrees) Location {
	return Location{lon: lon.E7(), lat: lat.E7()}
}

// LocationFromE7 builds a Location directly from 10^-7-degree fixed-point
// integers, as produced by the PBF coordinate-normalisation formula.
func LocationFromE7(lonE7, latE7 int32) Location {
	return Location{lon: lonE7, lat: latE7}
}

// IsDefined reports whether the location carries a real coordinate.
func (l Location) IsDefined() bool {
	return l != UndefinedLocation
}

// LonE7 returns the longitude as a 10^-7-degree fixed-point integer.
func (l Location) LonE7() int32 { return l.lon }

// LatE7 returns the latitude as a 10^-7-degree fixed-point integer.
func (l Location) LatE7() int32 { return l.lat }

// Lon returns the longitude in decimal degrees.
func (l Location) Lon() Degrees { return Degrees(l.lon) / TenMillionths }

// Lat returns the latitude in decimal degrees.
func (l Location) Lat() Degrees { return Degrees(l.lat) / TenMillionths }

func (l Location) String() string {
	if !l.IsDefined() {
		return "(undefined)"
	}

	return fmt.Sprintf("(%s, %s)", ftoa(float64(l.Lon())), ftoa(float64(l.Lat())))
}
