package encoder

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvorn/osmpbf/internal/decoder"
	"github.com/halvorn/osmpbf/model"
)

func TestSaveHeaderRoundTrip(t *testing.T) {
	ts, err := time.Parse(time.RFC3339, "2014-03-24T21:55:02Z")
	require.NoError(t, err)

	hdr := model.Header{
		BoundingBox:                      &model.BoundingBox{Top: 51.69344, Left: -0.511482, Bottom: 51.28554, Right: 0.335437},
		RequiredFeatures:                 []string{"OsmSchema-V0.6"},
		OptionalFeatures:                 []string{"Pbf"},
		WritingProgram:                   "osmpbf-test",
		Source:                           "pbf",
		OsmosisReplicationTimestamp:      ts,
		OsmosisReplicationSequenceNumber: 42,
		OsmosisReplicationBaseURL:        "https://example.invalid/replication",
		HasDenseNodes:                    true,
	}

	buf := &bytes.Buffer{}
	require.NoError(t, SaveHeader(buf, hdr, ZLIB))

	out, err := decoder.LoadHeader(buf)
	require.NoError(t, err)

	assert.True(t, out.BoundingBox.EqualWithin(hdr.BoundingBox, model.E6))
	assert.Equal(t, []string{"OsmSchema-V0.6", "DenseNodes"}, out.RequiredFeatures)
	assert.Equal(t, hdr.OptionalFeatures, out.OptionalFeatures)
	assert.Equal(t, hdr.WritingProgram, out.WritingProgram)
	assert.Equal(t, hdr.Source, out.Source)
	assert.Equal(t, hdr.OsmosisReplicationTimestamp, out.OsmosisReplicationTimestamp)
	assert.Equal(t, hdr.OsmosisReplicationSequenceNumber, out.OsmosisReplicationSequenceNumber)
	assert.Equal(t, hdr.OsmosisReplicationBaseURL, out.OsmosisReplicationBaseURL)
	assert.True(t, out.HasDenseNodes)
}

func TestSaveHeaderWithoutBoundingBox(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, SaveHeader(buf, model.Header{WritingProgram: "osmpbf-test"}, RAW))

	out, err := decoder.LoadHeader(buf)
	require.NoError(t, err)

	assert.Nil(t, out.BoundingBox)
	assert.Equal(t, "osmpbf-test", out.WritingProgram)
}
