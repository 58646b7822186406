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

package pb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// HeaderBBox is the bounding box carried in a HeaderBlock, in nanodegrees.
type HeaderBBox struct {
	Left, Right, Top, Bottom int64
}

func (bb *HeaderBBox) Marshal() []byte {
	var b []byte

	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(bb.Left))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(bb.Right))
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(bb.Top))
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(bb.Bottom))

	return b
}

func unmarshalHeaderBBox(b []byte) (*HeaderBBox, error) {
	bb := &HeaderBBox{}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("pb: HeaderBBox: bad tag: %w", protowire.ParseError(n))
		}

		b = b[n:]

		if typ != protowire.VarintType {
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return nil, fmt.Errorf("pb: HeaderBBox: bad field %d: %w", num, protowire.ParseError(m))
			}

			b = b[m:]

			continue
		}

		v, m := protowire.ConsumeVarint(b)
		if m < 0 {
			return nil, fmt.Errorf("pb: HeaderBBox field %d: %w", num, protowire.ParseError(m))
		}

		b = b[m:]
		signed := protowire.DecodeZigZag(v)

		switch num {
		case 1:
			bb.Left = signed
		case 2:
			bb.Right = signed
		case 3:
			bb.Top = signed
		case 4:
			bb.Bottom = signed
		}
	}

	return bb, nil
}

// HeaderBlock is the sole content of the file's first blob (type
// "OSMHeader").
type HeaderBlock struct {
	BBox                             *HeaderBBox
	RequiredFeatures                 []string
	OptionalFeatures                 []string
	WritingProgram                   string
	Source                           string
	OsmosisReplicationTimestamp      int64
	OsmosisReplicationSequenceNumber int64
	OsmosisReplicationBaseURL        string
}

func (h *HeaderBlock) Marshal() []byte {
	var b []byte

	if h.BBox != nil {
		bbb := h.BBox.Marshal()
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendVarint(b, uint64(len(bbb)))
		b = append(b, bbb...)
	}

	for _, f := range h.RequiredFeatures {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendString(b, f)
	}

	for _, f := range h.OptionalFeatures {
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		b = protowire.AppendString(b, f)
	}

	if h.WritingProgram != "" {
		b = protowire.AppendTag(b, 16, protowire.BytesType)
		b = protowire.AppendString(b, h.WritingProgram)
	}

	if h.Source != "" {
		b = protowire.AppendTag(b, 17, protowire.BytesType)
		b = protowire.AppendString(b, h.Source)
	}

	if h.OsmosisReplicationTimestamp != 0 {
		b = protowire.AppendTag(b, 32, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(h.OsmosisReplicationTimestamp))
	}

	if h.OsmosisReplicationSequenceNumber != 0 {
		b = protowire.AppendTag(b, 33, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(h.OsmosisReplicationSequenceNumber))
	}

	if h.OsmosisReplicationBaseURL != "" {
		b = protowire.AppendTag(b, 34, protowire.BytesType)
		b = protowire.AppendString(b, h.OsmosisReplicationBaseURL)
	}

	return b
}

func UnmarshalHeaderBlock(b []byte) (*HeaderBlock, error) {
	h := &HeaderBlock{}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("pb: HeaderBlock: bad tag: %w", protowire.ParseError(n))
		}

		b = b[n:]

		switch num {
		case 1:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: HeaderBlock.bbox: %w", protowire.ParseError(m))
			}

			bbox, err := unmarshalHeaderBBox(v)
			if err != nil {
				return nil, err
			}

			h.BBox = bbox
			b = b[m:]
		case 4:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: HeaderBlock.required_features: %w", protowire.ParseError(m))
			}

			h.RequiredFeatures = append(h.RequiredFeatures, v)
			b = b[m:]
		case 5:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: HeaderBlock.optional_features: %w", protowire.ParseError(m))
			}

			h.OptionalFeatures = append(h.OptionalFeatures, v)
			b = b[m:]
		case 16:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: HeaderBlock.writingprogram: %w", protowire.ParseError(m))
			}

			h.WritingProgram = v
			b = b[m:]
		case 17:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: HeaderBlock.source: %w", protowire.ParseError(m))
			}

			h.Source = v
			b = b[m:]
		case 32:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: HeaderBlock.osmosis_replication_timestamp: %w", protowire.ParseError(m))
			}

			h.OsmosisReplicationTimestamp = int64(v)
			b = b[m:]
		case 33:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: HeaderBlock.osmosis_replication_sequence_number: %w", protowire.ParseError(m))
			}

			h.OsmosisReplicationSequenceNumber = int64(v)
			b = b[m:]
		case 34:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: HeaderBlock.osmosis_replication_base_url: %w", protowire.ParseError(m))
			}

			h.OsmosisReplicationBaseURL = v
			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return nil, fmt.Errorf("pb: HeaderBlock: bad field %d: %w", num, protowire.ParseError(m))
			}

			b = b[m:]
		}
	}

	return h, nil
}
