// Copyright 2025 the original author or authors.
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

package encoder

import (
	"fmt"
	"io"

	"github.com/halvorn/osmpbf/internal/pb"
	"github.com/halvorn/osmpbf/model"
)

// nanodegree is the fixed-point scale HeaderBBox coordinates are carried at
// on the wire: 10^-9 degree per unit, matching internal/decoder's reverse
// conversion.
const nanodegree = 1e-9

func SaveHeader(wrtr io.Writer, hdr model.Header, compression BlobCompression) error {
	hb := &pb.HeaderBlock{
		RequiredFeatures:                 hdr.RequiredFeatures,
		OptionalFeatures:                 hdr.OptionalFeatures,
		WritingProgram:                   hdr.WritingProgram,
		Source:                           hdr.Source,
		OsmosisReplicationSequenceNumber: hdr.OsmosisReplicationSequenceNumber,
		OsmosisReplicationBaseURL:        hdr.OsmosisReplicationBaseURL,
	}

	if !hdr.OsmosisReplicationTimestamp.IsZero() {
		hb.OsmosisReplicationTimestamp = hdr.OsmosisReplicationTimestamp.Unix()
	}

	if hdr.BoundingBox != nil {
		hb.BBox = &pb.HeaderBBox{
			Top:    toNanodegree(hdr.BoundingBox.Top),
			Left:   toNanodegree(hdr.BoundingBox.Left),
			Bottom: toNanodegree(hdr.BoundingBox.Bottom),
			Right:  toNanodegree(hdr.BoundingBox.Right),
		}
	}

	if hdr.HasDenseNodes {
		hb.RequiredFeatures = appendIfMissing(hb.RequiredFeatures, "DenseNodes")
	}

	if hdr.HasMultipleObjectVersions {
		hb.RequiredFeatures = appendIfMissing(hb.RequiredFeatures, "HistoricalInformation")
	}

	if err := writeBlob(wrtr, "OSMHeader", hb, compression); err != nil {
		return fmt.Errorf("could not write header: %w", err)
	}

	return nil
}

func toNanodegree(d model.Degrees) int64 {
	return int64(float64(d) / nanodegree)
}

func appendIfMissing(features []string, feature string) []string {
	for _, f := range features {
		if f == feature {
			return features
		}
	}

	return append(features, feature)
}
