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
	"time"
)

// Header is the contents of the OpenStreetMap PBF data file.
type Header struct {
	BoundingBox                      *BoundingBox `json:"bounding_box,omitempty"`
	RequiredFeatures                 []string     `json:"required_features,omitempty"`
	OptionalFeatures                 []string     `json:"optional_features,omitempty"`
	WritingProgram                   string       `json:"writing_program,omitempty"`
	Source                           string       `json:"source,omitempty"`
	OsmosisReplicationTimestamp      time.Time    `json:"osmosis_replication_timestamp,omitempty"`
	OsmosisReplicationSequenceNumber int64        `json:"osmosis_replication_sequence_number,omitempty"`
	OsmosisReplicationBaseURL        string       `json:"osmosis_replication_base_url,omitempty"`

	// HasDenseNodes is set when RequiredFeatures names "DenseNodes". When
	// it is set, the writer adds "DenseNodes" to the written header's
	// required features; the writer does not set it on its own, although it
	// only ever emits dense node groups.
	HasDenseNodes bool `json:"-"`

	// HasMultipleObjectVersions is set when RequiredFeatures names
	// "HistoricalInformation".
	HasMultipleObjectVersions bool `json:"-"`
}

// ReadTypes is a bitmask of entity kinds a Reader should materialise.
// Groups whose kind is not requested are skipped without being decoded
// into the arena.
type ReadTypes uint8

const (
	ReadNodes ReadTypes = 1 << iota
	ReadWays
	ReadRelations
	ReadChangesets

	ReadAll = ReadNodes | ReadWays | ReadRelations | ReadChangesets
)

// Has reports whether the mask requests the given kind.
func (rt ReadTypes) Has(k EntityType) bool {
	switch k {
	case NODE:
		return rt&ReadNodes != 0
	case WAY:
		return rt&ReadWays != 0
	case RELATION:
		return rt&ReadRelations != 0
	case CHANGESET:
		return rt&ReadChangesets != 0
	default:
		return false
	}
}
