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

package osmpbf

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvorn/osmpbf/internal/pb"
	"github.com/halvorn/osmpbf/model"
)

func readAllEntities(t *testing.T, r *Reader) []model.Entity {
	t.Helper()

	var out []model.Entity

	for {
		buf, err := r.NextBuffer(context.Background())
		if err != nil {
			require.ErrorIs(t, err, io.EOF)

			break
		}

		for _, it := range buf.Items() {
			if v, ok := it.AsNode(); ok {
				e := v.ToEntity()
				out = append(out, &e)

				continue
			}

			if v, ok := it.AsWay(); ok {
				e := v.ToEntity()
				out = append(out, &e)

				continue
			}

			if v, ok := it.AsRelation(); ok {
				e := v.ToEntity()
				out = append(out, &e)

				continue
			}

			if v, ok := it.AsChangeset(); ok {
				e := v.ToEntity()
				out = append(out, &e)

				continue
			}
		}
	}

	return out
}

// S1: dense nodes round-trip exact locations in ascending id order.
func TestDenseNodeLocationRoundTrip(t *testing.T) {
	header := &model.Header{WritingProgram: "osmpbf-test"}

	var stream bytes.Buffer

	w, err := NewWriter(&stream, header)
	require.NoError(t, err)

	locations := []model.Location{
		model.NewLocation(-0.127, 51.507),
		model.NewLocation(-0.141, 51.501),
		model.NewLocation(2.349, 48.853),
	}

	for i, loc := range locations {
		require.NoError(t, w.WriteItem(&model.Node{
			ID:       model.ID(i + 1),
			Info:     &model.Info{Visible: true},
			Location: loc,
		}))
	}

	require.NoError(t, w.Close())

	r, err := NewReader(&stream, model.ReadAll)
	require.NoError(t, err)
	defer r.Close()

	entities := readAllEntities(t, r)
	require.Len(t, entities, len(locations))

	var lastID model.ID

	for i, e := range entities {
		n, ok := e.(*model.Node)
		require.True(t, ok)
		assert.Greater(t, n.ID, lastID)
		lastID = n.ID

		assert.InDelta(t, float64(locations[i].Lon()), float64(n.Location.Lon()), 1e-7)
		assert.InDelta(t, float64(locations[i].Lat()), float64(n.Location.Lat()), 1e-7)
	}
}

// S2: each dense node's tags stay associated with that node, not shifted
// onto its neighbor, across a run of nodes with differing tag sets.
func TestDenseNodeTagAssociation(t *testing.T) {
	header := &model.Header{WritingProgram: "osmpbf-test"}

	var stream bytes.Buffer

	w, err := NewWriter(&stream, header)
	require.NoError(t, err)

	nodes := []*model.Node{
		{ID: 1, Info: &model.Info{Visible: true}, Tags: map[string]string{"amenity": "cafe"}},
		{ID: 2, Info: &model.Info{Visible: true}},
		{ID: 3, Info: &model.Info{Visible: true}, Tags: map[string]string{"shop": "bakery", "name": "Le Pain"}},
	}

	for _, n := range nodes {
		require.NoError(t, w.WriteItem(n))
	}

	require.NoError(t, w.Close())

	r, err := NewReader(&stream, model.ReadAll)
	require.NoError(t, err)
	defer r.Close()

	entities := readAllEntities(t, r)
	require.Len(t, entities, len(nodes))

	for i, e := range entities {
		n, ok := e.(*model.Node)
		require.True(t, ok)
		assert.Equal(t, nodes[i].ID, n.ID)

		if len(nodes[i].Tags) == 0 {
			assert.Empty(t, n.Tags)
		} else {
			assert.Equal(t, nodes[i].Tags, n.Tags)
		}
	}
}

// S3: a way's node-ref list round-trips exactly, deltas included.
func TestWayNodeRefRoundTrip(t *testing.T) {
	header := &model.Header{WritingProgram: "osmpbf-test"}

	var stream bytes.Buffer

	w, err := NewWriter(&stream, header)
	require.NoError(t, err)

	way := &model.Way{
		ID:      100,
		Info:    &model.Info{Visible: true},
		Tags:    map[string]string{"highway": "residential"},
		NodeIDs: []model.ID{10, 11, 9, 500, 9},
	}

	require.NoError(t, w.WriteItem(way))
	require.NoError(t, w.Close())

	r, err := NewReader(&stream, model.ReadAll)
	require.NoError(t, err)
	defer r.Close()

	entities := readAllEntities(t, r)
	require.Len(t, entities, 1)

	got, ok := entities[0].(*model.Way)
	require.True(t, ok)
	assert.Equal(t, way.ID, got.ID)
	assert.Equal(t, way.NodeIDs, got.NodeIDs)
	assert.Equal(t, way.Tags, got.Tags)
}

// S4: a second blob whose BlobHeader.Type isn't "OSMData" is a fatal
// Format error, not silently skipped or misread as the wrong kind.
func TestUnknownBlobHeaderTypeIsFormatError(t *testing.T) {
	header := &model.Header{WritingProgram: "osmpbf-test"}

	var stream bytes.Buffer

	w, err := NewWriter(&stream, header)
	require.NoError(t, err)
	require.NoError(t, w.WriteItem(&model.Way{ID: 1, Info: &model.Info{Visible: true}, NodeIDs: []model.ID{1, 2}}))
	require.NoError(t, w.Close())

	// Append a second blob carrying a bogus header type.
	hdr := &pb.BlobHeader{Type: "Unknown", DataSize: 0}
	hb := hdr.Marshal()
	require.NoError(t, binary.Write(&stream, binary.BigEndian, uint32(len(hb))))
	_, err = stream.Write(hb)
	require.NoError(t, err)

	r, err := NewReader(&stream, model.ReadAll)
	require.NoError(t, err)
	defer r.Close()

	// First NextBuffer succeeds (the legitimate OSMData blob); the
	// second surfaces the format violation.
	_, err = r.NextBuffer(context.Background())
	require.NoError(t, err)

	_, err = r.NextBuffer(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, io.EOF))

	var pbfErr *Error
	require.True(t, errors.As(err, &pbfErr))
	assert.Equal(t, KindFormat, pbfErr.Kind)
}

// S5: a relation's member list, including a non-ASCII role string,
// round-trips exactly.
func TestRelationMemberRoundTrip(t *testing.T) {
	header := &model.Header{WritingProgram: "osmpbf-test"}

	var stream bytes.Buffer

	w, err := NewWriter(&stream, header)
	require.NoError(t, err)

	rel := &model.Relation{
		ID:   7,
		Info: &model.Info{Visible: true},
		Tags: map[string]string{"type": "route"},
		Members: []model.Member{
			{ID: 1, Type: model.NODE, Role: "via"},
			{ID: 2, Type: model.WAY, Role: "Straße"},
			{ID: 3, Type: model.RELATION, Role: ""},
		},
	}

	require.NoError(t, w.WriteItem(rel))
	require.NoError(t, w.Close())

	r, err := NewReader(&stream, model.ReadAll)
	require.NoError(t, err)
	defer r.Close()

	entities := readAllEntities(t, r)
	require.Len(t, entities, 1)

	got, ok := entities[0].(*model.Relation)
	require.True(t, ok)
	assert.Equal(t, rel.Members, got.Members)
}

// S7: an entity's Info.User string round-trips through the wire format
// and the arena representation unchanged, for every entity kind.
func TestInfoUserRoundTrip(t *testing.T) {
	header := &model.Header{WritingProgram: "osmpbf-test"}

	var stream bytes.Buffer

	w, err := NewWriter(&stream, header)
	require.NoError(t, err)

	require.NoError(t, w.WriteItem(&model.Node{
		ID:       1,
		Info:     &model.Info{Visible: true, User: "alice"},
		Location: model.NewLocation(1, 1),
	}))
	require.NoError(t, w.WriteItem(&model.Way{
		ID:      2,
		Info:    &model.Info{Visible: true, User: "bob"},
		NodeIDs: []model.ID{1},
	}))
	require.NoError(t, w.WriteItem(&model.Relation{
		ID:   3,
		Info: &model.Info{Visible: true, User: "carol"},
		Members: []model.Member{
			{ID: 1, Type: model.NODE, Role: "via"},
		},
	}))
	require.NoError(t, w.WriteItem(&model.Changeset{
		ID:   4,
		Info: &model.Info{User: "dave"},
	}))

	require.NoError(t, w.Close())

	r, err := NewReader(&stream, model.ReadAll)
	require.NoError(t, err)
	defer r.Close()

	entities := readAllEntities(t, r)
	require.Len(t, entities, 4)

	users := make(map[model.ID]string, len(entities))

	for _, e := range entities {
		switch v := e.(type) {
		case *model.Node:
			users[v.ID] = v.Info.User
		case *model.Way:
			users[v.ID] = v.Info.User
		case *model.Relation:
			users[v.ID] = v.Info.User
		case *model.Changeset:
			users[v.ID] = v.Info.User
		}
	}

	assert.Equal(t, map[model.ID]string{1: "alice", 2: "bob", 3: "carol", 4: "dave"}, users)
}

// S8: an invisible node decodes with an undefined Location even when its
// raw lon/lat fields happen to be zero, a common real-world encoding for
// a deleted node.
func TestInvisibleNodeLocationUndefined(t *testing.T) {
	header := &model.Header{WritingProgram: "osmpbf-test"}

	var stream bytes.Buffer

	w, err := NewWriter(&stream, header)
	require.NoError(t, err)

	require.NoError(t, w.WriteItem(&model.Node{
		ID:       1,
		Info:     &model.Info{Visible: false},
		Location: model.LocationFromE7(0, 0),
	}))

	require.NoError(t, w.Close())

	r, err := NewReader(&stream, model.ReadAll)
	require.NoError(t, err)
	defer r.Close()

	entities := readAllEntities(t, r)
	require.Len(t, entities, 1)

	n, ok := entities[0].(*model.Node)
	require.True(t, ok)
	assert.False(t, n.Info.Visible)
	assert.False(t, n.Location.IsDefined())
}

// S6: filtering out the only entity kind present in the stream yields
// zero entities and a clean io.EOF, not an error.
func TestReadTypesFiltersOutAllEntities(t *testing.T) {
	header := &model.Header{WritingProgram: "osmpbf-test"}

	var stream bytes.Buffer

	w, err := NewWriter(&stream, header)
	require.NoError(t, err)
	require.NoError(t, w.WriteItem(&model.Node{ID: 1, Info: &model.Info{Visible: true}}))
	require.NoError(t, w.Close())

	r, err := NewReader(&stream, model.ReadWays)
	require.NoError(t, err)
	defer r.Close()

	buf, err := r.NextBuffer(context.Background())
	require.NoError(t, err)
	assert.Empty(t, buf.Items())

	_, err = r.NextBuffer(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}
