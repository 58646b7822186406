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
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/destel/rill"
	"golang.org/x/exp/constraints"

	"github.com/halvorn/osmpbf/internal/pb"
	"github.com/halvorn/osmpbf/model"
)

const (
	DateGranularityMs = 1000
	Granularity       = 100
	LatOffset         = 0
	LonOffset         = 0

	// EntityLimit is the max number of entities in a pb.PrimitiveBlock.
	// Certain programs (e.g. osmosis 0.38) limit the number of entities in
	// each block to 8000 when writing PBF format.
	EntityLimit = 8000
)

func SaveBlock(w io.Writer, bb rill.Try[[]byte]) error {
	if bb.Error != nil {
		return bb.Error
	}

	hdr := &pb.BlobHeader{
		Type:     "OSMData",
		DataSize: int32(len(bb.Value)),
	}

	hb := hdr.Marshal()

	if err := binary.Write(w, binary.BigEndian, uint32(len(hb))); err != nil {
		return fmt.Errorf("could not write header size: %w", err)
	}

	if _, err := w.Write(hb); err != nil {
		return fmt.Errorf("could not write blob header: %w", err)
	}

	if _, err := w.Write(bb.Value); err != nil {
		return fmt.Errorf("could not write blob data: %w", err)
	}

	return nil
}

type blockContext struct {
	table    *Table
	bbox     model.BoundingBox
	entities []model.Entity
}

func newBlockContext(entities []model.Entity) *blockContext {
	strings := NewStrings()

	for _, e := range entities {
		extractTagsAndInfo(strings, e)

		if r, ok := e.(*model.Relation); ok {
			extractMemberRoles(strings, r)
		}
	}

	return &blockContext{
		table:    strings.CalcTable(),
		entities: entities,
	}
}

// EncodeBatch turns a batch of entities of a single kind (all Nodes, all
// Ways, all Relations, or all Changesets — see batchEntities) into one
// pb.PrimitiveBlock.
func EncodeBatch(batch []model.Entity) (*pb.PrimitiveBlock, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("encoder: empty batch")
	}

	return newBlockContext(batch).extractPrimitiveBlock(), nil
}

func (bc *blockContext) extractPrimitiveBlock() *pb.PrimitiveBlock {
	pg := &pb.PrimitiveGroup{}

	switch bc.entities[0].(type) {
	case *model.Node:
		pg.Dense = bc.extractDenseNodes()
	case *model.Way:
		pg.Ways = bc.extractWays()
	case *model.Relation:
		pg.Relations = bc.extractRelations()
	case *model.Changeset:
		pg.Changesets = bc.extractChangesets()
	default:
		panic(fmt.Sprintf("encoder: unsupported entity type %T", bc.entities[0]))
	}

	strs := bc.table.AsArray()
	byteStrs := make([][]byte, len(strs))
	for i, s := range strs {
		byteStrs[i] = []byte(s)
	}

	return &pb.PrimitiveBlock{
		StringTable:     &pb.StringTable{S: byteStrs},
		Groups:          []*pb.PrimitiveGroup{pg},
		Granularity:     Granularity,
		LatOffset:       LatOffset,
		LonOffset:       LonOffset,
		DateGranularity: DateGranularityMs,
	}
}

func (bc *blockContext) extractDenseNodes() *pb.DenseNodes {
	dn := &pb.DenseNodes{}

	var (
		ids, lats, lons, ts, cs []int64
		versions, uids, usids   []int32
		visibles                []bool
	)

	keyValIDs := make([]int32, 0)

	for _, e := range bc.entities {
		n, ok := e.(*model.Node)
		if !ok {
			continue
		}

		ids = append(ids, int64(n.ID))

		lat := n.Location.Lat()
		lon := n.Location.Lon()

		if n.Location.IsDefined() {
			bc.bbox.ExpandWithLatLng(lat, lon)
		}

		lats = append(lats, model.ToCoordinate(LatOffset, Granularity, lat))
		lons = append(lons, model.ToCoordinate(LonOffset, Granularity, lon))

		info := n.Info
		if info == nil {
			info = &model.Info{Visible: true}
		}

		versions = append(versions, info.Version)
		uids = append(uids, int32(info.UID))
		ts = append(ts, fromTimestamp(DateGranularityMs, info.Timestamp))
		cs = append(cs, info.Changeset)
		usids = append(usids, bc.table.IndexOf(info.User))
		visibles = append(visibles, info.Visible)

		kIDs, vIDs := calcTagIDs(n.Tags, bc.table)
		for i, k := range kIDs {
			keyValIDs = append(keyValIDs, int32(k), int32(vIDs[i]))
		}

		keyValIDs = append(keyValIDs, 0)
	}

	dn.ID = calcDeltas(ids)
	dn.DenseInfo = &pb.DenseInfo{
		Version:   calcDeltas(versions),
		Timestamp: calcDeltas(ts),
		Changeset: calcDeltas(cs),
		UID:       calcDeltas(uids),
		UserSID:   calcDeltas(usids),
		Visible:   visibles,
	}
	dn.Lat = calcDeltas(lats)
	dn.Lon = calcDeltas(lons)
	dn.KeysVals = keyValIDs

	return dn
}

func (bc *blockContext) extractWays() []*pb.Way {
	var ways []*pb.Way

	for _, e := range bc.entities {
		w, ok := e.(*model.Way)
		if !ok {
			continue
		}

		refs := make([]int64, len(w.NodeIDs))
		for i, r := range w.NodeIDs {
			refs[i] = int64(r)
		}

		keyIDs, valIDs := calcTagIDs(w.Tags, bc.table)

		ways = append(ways, &pb.Way{
			ID:   int64(w.ID),
			Keys: keyIDs,
			Vals: valIDs,
			Info: toInfoPb(w.Info, bc.table),
			Refs: calcDeltas(refs),
		})
	}

	return ways
}

func (bc *blockContext) extractRelations() []*pb.Relation {
	var relations []*pb.Relation

	for _, e := range bc.entities {
		r, ok := e.(*model.Relation)
		if !ok {
			continue
		}

		keyIDs, valIDs := calcTagIDs(r.Tags, bc.table)
		memIDs := make([]int64, len(r.Members))
		roleIDs := make([]int32, len(r.Members))
		types := make([]pb.MemberType, len(r.Members))

		for i, m := range r.Members {
			memIDs[i] = int64(m.ID)
			roleIDs[i] = bc.table.IndexOf(m.Role)
			types[i] = pb.MemberType(m.Type)
		}

		relations = append(relations, &pb.Relation{
			ID:       int64(r.ID),
			Keys:     keyIDs,
			Vals:     valIDs,
			Info:     toInfoPb(r.Info, bc.table),
			RolesSID: roleIDs,
			MemIDs:   calcDeltas(memIDs),
			Types:    types,
		})
	}

	return relations
}

func (bc *blockContext) extractChangesets() []*pb.ChangeSet {
	var changesets []*pb.ChangeSet

	for _, e := range bc.entities {
		c, ok := e.(*model.Changeset)
		if !ok {
			continue
		}

		keyIDs, valIDs := calcTagIDs(c.Tags, bc.table)

		info := c.Info
		if info == nil {
			info = &model.Info{}
		}

		changesets = append(changesets, &pb.ChangeSet{
			ID:         int64(c.ID),
			Keys:       keyIDs,
			Vals:       valIDs,
			UID:        int32(info.UID),
			UserSID:    uint32(bc.table.IndexOf(info.User)),
			CreatedAt:  info.Timestamp.UTC().Unix(),
			ClosedAt:   c.ClosedAt.UTC().Unix(),
			Open:       c.Open,
			NumChanges: c.NumChanges,
		})
	}

	return changesets
}

func extractMemberRoles(strings *Strings, r *model.Relation) {
	for _, m := range r.Members {
		strings.Add(m.Role)
	}
}

func extractTagsAndInfo(strings *Strings, e model.Entity) {
	for k, v := range e.GetTags() {
		strings.Add(k)
		strings.Add(v)
	}

	if info := e.GetInfo(); info != nil {
		strings.Add(info.User)
	}
}

// calcDeltas calculates the delta-encoding of a sequence of ids or other
// monotonic-ish values, the inverse of the cumulative sum the decoder
// applies when reading a DenseNodes/Way/Relation group.
func calcDeltas[T constraints.Integer](values []T) []T {
	var prev T

	deltas := make([]T, len(values))

	for i, v := range values {
		deltas[i] = v - prev
		prev = v
	}

	return deltas
}

func calcTagIDs(tags map[string]string, table *Table) (keyIDs, valIDs []uint32) {
	keys := make([]string, 0, len(tags))

	for k := range tags {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		keyIDs = append(keyIDs, uint32(table.IndexOf(k)))
		valIDs = append(valIDs, uint32(table.IndexOf(tags[k])))
	}

	return keyIDs, valIDs
}

func toInfoPb(info *model.Info, table *Table) *pb.Info {
	if info == nil {
		info = &model.Info{Visible: true}
	}

	return &pb.Info{
		Version:    info.Version,
		Timestamp:  fromTimestamp(DateGranularityMs, info.Timestamp),
		Changeset:  info.Changeset,
		UID:        int32(info.UID),
		UserSID:    uint32(table.IndexOf(info.User)),
		Visible:    info.Visible,
		HasVisible: true,
	}
}

// fromTimestamp converts a UTC timestamp to units of the given granularity
// in milliseconds, the inverse of internal/decoder's toTimestamp.
func fromTimestamp(granularity int32, timestamp time.Time) int64 {
	return timestamp.UnixMilli() / int64(granularity)
}
