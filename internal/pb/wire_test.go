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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobHeaderRoundTrip(t *testing.T) {
	h := &BlobHeader{Type: "OSMData", DataSize: 12345}

	out, err := UnmarshalBlobHeader(h.Marshal())
	require.NoError(t, err)
	assert.Equal(t, h, out)
}

func TestBlobHeaderWithIndexData(t *testing.T) {
	h := &BlobHeader{Type: "OSMHeader", IndexData: []byte{1, 2, 3}, DataSize: 7}

	out, err := UnmarshalBlobHeader(h.Marshal())
	require.NoError(t, err)
	assert.Equal(t, h, out)
}

func TestBlobHeaderMissingType(t *testing.T) {
	_, err := UnmarshalBlobHeader((&BlobHeader{DataSize: 1}).Marshal())
	assert.Error(t, err)
}

func TestBlobRawRoundTrip(t *testing.T) {
	b := &Blob{Raw: []byte("hello world")}

	out, err := UnmarshalBlob(b.Marshal())
	require.NoError(t, err)
	assert.Equal(t, b.Raw, out.Raw)
	assert.False(t, out.HasRawLen)
}

func TestBlobZlibRoundTrip(t *testing.T) {
	b := &Blob{ZlibData: []byte{0x78, 0x9c}, RawSize: 42}

	out, err := UnmarshalBlob(b.Marshal())
	require.NoError(t, err)
	assert.Equal(t, b.ZlibData, out.ZlibData)
	assert.Equal(t, int32(42), out.RawSize)
	assert.True(t, out.HasRawLen)
}

func TestBlobZstdRoundTrip(t *testing.T) {
	b := &Blob{ZstdData: []byte{1, 2, 3, 4}, RawSize: 99}

	out, err := UnmarshalBlob(b.Marshal())
	require.NoError(t, err)
	assert.Equal(t, b.ZstdData, out.ZstdData)
	assert.Equal(t, int32(99), out.RawSize)
}

func TestBlobLz4RoundTrip(t *testing.T) {
	b := &Blob{Lz4Data: []byte{5, 6, 7}, RawSize: 10}

	out, err := UnmarshalBlob(b.Marshal())
	require.NoError(t, err)
	assert.Equal(t, b.Lz4Data, out.Lz4Data)
}

func TestHeaderBlockRoundTrip(t *testing.T) {
	h := &HeaderBlock{
		BBox:                             &HeaderBBox{Left: -1000, Right: 2000, Top: 3000, Bottom: -4000},
		RequiredFeatures:                 []string{"OsmSchema-V0.6", "DenseNodes"},
		OptionalFeatures:                 []string{"HistoricalInformation"},
		WritingProgram:                   "osmpbf-test",
		Source:                           "pbf",
		OsmosisReplicationTimestamp:      1700000000,
		OsmosisReplicationSequenceNumber: 42,
		OsmosisReplicationBaseURL:        "https://example.invalid/replication",
	}

	out, err := UnmarshalHeaderBlock(h.Marshal())
	require.NoError(t, err)
	assert.Equal(t, h, out)
}

func TestHeaderBlockNoBBox(t *testing.T) {
	h := &HeaderBlock{WritingProgram: "osmpbf-test"}

	out, err := UnmarshalHeaderBlock(h.Marshal())
	require.NoError(t, err)
	assert.Nil(t, out.BBox)
	assert.Equal(t, "osmpbf-test", out.WritingProgram)
}

func TestHeaderBBoxZigZagNegatives(t *testing.T) {
	bb := &HeaderBBox{Left: -1, Right: -1000000, Top: 1000000, Bottom: 0}

	out, err := unmarshalHeaderBBox(bb.Marshal())
	require.NoError(t, err)
	assert.Equal(t, bb, out)
}
