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

func TestStringTableRoundTrip(t *testing.T) {
	st := &StringTable{S: [][]byte{[]byte(""), []byte("highway"), []byte("residential")}}

	out, err := unmarshalStringTable(st.Marshal())
	require.NoError(t, err)
	assert.Equal(t, st, out)
}

func TestInfoRoundTripWithVisible(t *testing.T) {
	info := &Info{Version: 3, Timestamp: 1700000000, Changeset: 55, UID: 7, UserSID: 2, Visible: false, HasVisible: true}

	out, err := unmarshalInfo(info.Marshal())
	require.NoError(t, err)
	assert.Equal(t, info, out)
}

func TestInfoRoundTripNoVisibleField(t *testing.T) {
	info := &Info{Version: 1, Timestamp: 5, Changeset: 1, UID: 1, UserSID: 1}

	out, err := unmarshalInfo(info.Marshal())
	require.NoError(t, err)
	assert.True(t, out.Visible)
	assert.False(t, out.HasVisible)
}

func TestNodeRoundTrip(t *testing.T) {
	n := &Node{
		ID:   42,
		Keys: []uint32{1, 3},
		Vals: []uint32{2, 4},
		Info: &Info{Version: 1, Timestamp: 100, Changeset: 9, UID: 1, UserSID: 1},
		Lat:  516500000,
		Lon:  -100000,
	}

	out, err := unmarshalNode(n.Marshal())
	require.NoError(t, err)
	assert.Equal(t, n, out)
}

func TestWayRoundTrip(t *testing.T) {
	w := &Way{
		ID:   7,
		Keys: []uint32{1},
		Vals: []uint32{2},
		Info: &Info{Version: 2, Timestamp: 50, Changeset: 1, UID: 1, UserSID: 1},
		Refs: []int64{10, 1, 1, -2},
	}

	out, err := unmarshalWay(w.Marshal())
	require.NoError(t, err)
	assert.Equal(t, w, out)
}

func TestRelationRoundTrip(t *testing.T) {
	r := &Relation{
		ID:       99,
		Keys:     []uint32{1},
		Vals:     []uint32{2},
		Info:     &Info{Version: 1, Timestamp: 1, Changeset: 1, UID: 1, UserSID: 1},
		RolesSID: []int32{3, 4},
		MemIDs:   []int64{1, 1},
		Types:    []MemberType{MemberNode, MemberWay},
	}

	out, err := unmarshalRelation(r.Marshal())
	require.NoError(t, err)
	assert.Equal(t, r, out)
}

func TestDenseNodesRoundTrip(t *testing.T) {
	dn := &DenseNodes{
		ID: []int64{1, 1, 1},
		DenseInfo: &DenseInfo{
			Version:   []int32{1, 1, 1},
			Timestamp: []int64{100, 1, 1},
			Changeset: []int64{5, 0, 0},
			UID:       []int32{1, 0, 0},
			UserSID:   []int32{1, 0, 0},
			Visible:   []bool{true, true, true},
		},
		Lat:      []int64{516500000, 10, -5},
		Lon:      []int64{-100000, -10, 20},
		KeysVals: []int32{1, 2, 0},
	}

	out, err := unmarshalDenseNodes(dn.Marshal())
	require.NoError(t, err)
	assert.Equal(t, dn, out)
}

func TestPrimitiveBlockRoundTrip(t *testing.T) {
	pbk := &PrimitiveBlock{
		StringTable: &StringTable{S: [][]byte{[]byte(""), []byte("amenity"), []byte("cafe")}},
		Groups: []*PrimitiveGroup{
			{
				Nodes: []*Node{
					{ID: 1, Keys: []uint32{1}, Vals: []uint32{2}, Info: &Info{Version: 1, UID: 1, UserSID: 1}, Lat: 1000, Lon: 2000},
				},
				Ways: []*Way{
					{ID: 2, Info: &Info{Version: 1, UID: 1, UserSID: 1}, Refs: []int64{1}},
				},
				Relations: []*Relation{
					{ID: 3, Info: &Info{Version: 1, UID: 1, UserSID: 1}, RolesSID: []int32{0}, MemIDs: []int64{2}, Types: []MemberType{MemberWay}},
				},
			},
		},
		Granularity:     DefaultGranularity,
		DateGranularity: DefaultDateGranularity,
	}

	out, err := UnmarshalPrimitiveBlock(pbk.Marshal())
	require.NoError(t, err)
	require.Len(t, out.Groups, 1)
	assert.Equal(t, pbk.StringTable, out.StringTable)
	assert.Equal(t, pbk.Groups[0].Nodes, out.Groups[0].Nodes)
	assert.Equal(t, pbk.Groups[0].Ways, out.Groups[0].Ways)
	assert.Equal(t, pbk.Groups[0].Relations, out.Groups[0].Relations)
	assert.Equal(t, DefaultGranularity, out.Granularity)
	assert.Equal(t, DefaultDateGranularity, out.DateGranularity)
}

func TestPrimitiveBlockCustomGranularity(t *testing.T) {
	pbk := &PrimitiveBlock{
		StringTable:     &StringTable{},
		Granularity:     1000,
		LatOffset:       123456,
		LonOffset:       -654321,
		DateGranularity: 1,
	}

	out, err := UnmarshalPrimitiveBlock(pbk.Marshal())
	require.NoError(t, err)
	assert.Equal(t, int32(1000), out.Granularity)
	assert.Equal(t, int64(123456), out.LatOffset)
	assert.Equal(t, int64(-654321), out.LonOffset)
	assert.Equal(t, int32(1), out.DateGranularity)
}
