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

package decoder

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/halvorn/osmpbf/internal/core"
	"github.com/halvorn/osmpbf/internal/pb"
	"github.com/halvorn/osmpbf/model"
)

// nanodegree is the fixed-point scale HeaderBBox coordinates are carried
// at on the wire: 10^-9 degree per unit.
const nanodegree = 1e-9

// LoadHeader reads the file's leading OSMHeader blob and decodes it into
// a model.Header.
func LoadHeader(reader io.Reader) (model.Header, error) {
	blob, err := readBlob(reader, "OSMHeader")
	if err != nil {
		return model.Header{}, fmt.Errorf("error reading header blob: %w", err)
	}

	buf := core.NewPooledBuffer()
	defer buf.Close()

	data, err := unpack(buf, blob)
	if err != nil {
		return model.Header{}, fmt.Errorf("error unpacking header blob: %w", err)
	}

	hb, err := pb.UnmarshalHeaderBlock(data)
	if err != nil {
		return model.Header{}, fmt.Errorf("%w: error unmarshalling header block: %v", ErrMalformed, err)
	}

	if err := checkRequiredFeatures(hb.RequiredFeatures); err != nil {
		return model.Header{}, err
	}

	return headerFromBlock(hb), nil
}

// knownRequiredFeatures lists every required-feature string this reader
// knows how to honor. Any other value makes the file unreadable by
// definition: a required feature this code doesn't implement means it
// can't faithfully reconstruct the data.
var knownRequiredFeatures = map[string]bool{
	"OsmSchema-V0.6":        true,
	"DenseNodes":            true,
	"HistoricalInformation": true,
}

func checkRequiredFeatures(features []string) error {
	for _, f := range features {
		if !knownRequiredFeatures[f] {
			return fmt.Errorf("%w: unknown required feature %q", ErrMalformed, f)
		}
	}

	return nil
}

func headerFromBlock(hb *pb.HeaderBlock) model.Header {
	h := model.Header{
		RequiredFeatures:                 hb.RequiredFeatures,
		OptionalFeatures:                 hb.OptionalFeatures,
		WritingProgram:                   hb.WritingProgram,
		Source:                           hb.Source,
		OsmosisReplicationSequenceNumber: hb.OsmosisReplicationSequenceNumber,
		OsmosisReplicationBaseURL:        hb.OsmosisReplicationBaseURL,
	}

	if hb.OsmosisReplicationTimestamp != 0 {
		h.OsmosisReplicationTimestamp = time.Unix(hb.OsmosisReplicationTimestamp, 0).UTC()
	}

	if hb.BBox != nil {
		h.BoundingBox = &model.BoundingBox{
			Top:    model.Degrees(float64(hb.BBox.Top) * nanodegree),
			Left:   model.Degrees(float64(hb.BBox.Left) * nanodegree),
			Bottom: model.Degrees(float64(hb.BBox.Bottom) * nanodegree),
			Right:  model.Degrees(float64(hb.BBox.Right) * nanodegree),
		}
	}

	h.HasDenseNodes = slices.Contains(hb.RequiredFeatures, "DenseNodes")
	h.HasMultipleObjectVersions = slices.Contains(hb.RequiredFeatures, "HistoricalInformation")

	return h
}
