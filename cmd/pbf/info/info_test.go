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

package info

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvorn/osmpbf"
	"github.com/halvorn/osmpbf/model"
)

func sampleBoundingBox() *model.BoundingBox {
	return &model.BoundingBox{Left: -0.511482, Right: 0.335437, Top: 51.69344, Bottom: 51.28554}
}

func sampleHeader() model.Header {
	ts, _ := time.Parse(time.RFC3339, "2014-03-24T21:55:02Z")

	return model.Header{
		BoundingBox:                 sampleBoundingBox(),
		RequiredFeatures:            []string{"OsmSchema-V0.6", "DenseNodes"},
		WritingProgram:              "Osmium (http://wiki.openstreetmap.org/wiki/Osmium)",
		OsmosisReplicationTimestamp: ts,
		HasDenseNodes:               true,
	}
}

// writeSamplePBF synthesizes a tiny PBF (one node, one way, one relation)
// using this module's own Writer, so runInfo can be exercised without an
// external fixture file.
func writeSamplePBF(t *testing.T) *bytes.Buffer {
	t.Helper()

	hdr := sampleHeader()

	buf := &bytes.Buffer{}

	w, err := osmpbf.NewWriter(buf, &hdr)
	require.NoError(t, err)

	require.NoError(t, w.WriteItem(&model.Node{
		ID:       1,
		Info:     &model.Info{Visible: true},
		Location: model.NewLocation(-0.1, 51.5),
	}))
	require.NoError(t, w.WriteItem(&model.Way{
		ID:      2,
		Info:    &model.Info{Visible: true},
		NodeIDs: []model.ID{1},
	}))
	require.NoError(t, w.WriteItem(&model.Relation{
		ID:      3,
		Info:    &model.Info{Visible: true},
		Members: []model.Member{{ID: 2, Type: model.WAY, Role: "outer"}},
	}))
	require.NoError(t, w.Close())

	return buf
}

func TestRunInfoHeaderOnly(t *testing.T) {
	src := writeSamplePBF(t)

	info := runInfo(src, 2, false)

	assert.True(t, info.BoundingBox.EqualWithin(sampleBoundingBox(), model.E6))
	assert.Equal(t, []string{"OsmSchema-V0.6", "DenseNodes"}, info.RequiredFeatures)
	assert.Equal(t, "Osmium (http://wiki.openstreetmap.org/wiki/Osmium)", info.WritingProgram)
	assert.Equal(t, int64(0), info.NodeCount)
	assert.Equal(t, int64(0), info.WayCount)
	assert.Equal(t, int64(0), info.RelationCount)
}

func TestRunInfoExtended(t *testing.T) {
	src := writeSamplePBF(t)

	info := runInfo(src, 2, true)

	assert.Equal(t, int64(1), info.NodeCount)
	assert.Equal(t, int64(1), info.WayCount)
	assert.Equal(t, int64(1), info.RelationCount)
	assert.Equal(t, int64(0), info.ChangesetCount)
}

func TestRenderJSON(t *testing.T) {
	eh := &extendedHeader{
		Header:        sampleHeader(),
		NodeCount:     2729006,
		WayCount:      459055,
		RelationCount: 12833,
	}

	buf := &bytes.Buffer{}

	saved := out
	defer func() { out = saved }()
	out = buf

	renderJSON(eh, true)

	var info extendedHeader

	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))

	assert.True(t, info.BoundingBox.EqualWithin(sampleBoundingBox(), model.E6))
	assert.Equal(t, []string{"OsmSchema-V0.6", "DenseNodes"}, info.RequiredFeatures)
	assert.Equal(t, "Osmium (http://wiki.openstreetmap.org/wiki/Osmium)", info.WritingProgram)
	assert.Equal(t, int64(2729006), info.NodeCount)
	assert.Equal(t, int64(459055), info.WayCount)
	assert.Equal(t, int64(12833), info.RelationCount)
}

func TestRenderText(t *testing.T) {
	h := sampleHeader()
	h.OptionalFeatures = []string{"Pbf"}
	h.Source = "pbf"
	h.OsmosisReplicationBaseURL = "https://github.com/halvorn/osmpbf"

	eh := &extendedHeader{
		Header:        h,
		NodeCount:     2729006,
		WayCount:      459055,
		RelationCount: 12833,
	}

	buf := &bytes.Buffer{}

	saved := out
	defer func() { out = saved }()
	out = buf

	renderTxt(eh, true)

	assert.Equal(t, `BoundingBox: [(51.69344, -0.511482) (51.28554, 0.335437)]
RequiredFeatures: OsmSchema-V0.6, DenseNodes
OptionalFeatures: Pbf
WritingProgram: Osmium (http://wiki.openstreetmap.org/wiki/Osmium)
Source: pbf
OsmosisReplicationTimestamp: 2014-03-24T21:55:02Z
OsmosisReplicationSequenceNumber: 0
OsmosisReplicationBaseURL: https://github.com/halvorn/osmpbf
NodeCount: 2,729,006
WayCount: 459,055
RelationCount: 12,833
ChangesetCount: 0
`, buf.String())
}
