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
	"time"

	"github.com/halvorn/osmpbf/internal/pb"
	"github.com/halvorn/osmpbf/model"
)

// parsePrimitiveBlock decodes one PrimitiveBlock into the entities its
// groups hold, honoring readTypes to skip groups the caller doesn't want
// decoded at all. Any per-entity corruption aborts the whole block: no
// partial results are returned for it.
func parsePrimitiveBlock(buf []byte, readTypes model.ReadTypes) ([]model.Entity, error) {
	blk, err := pb.UnmarshalPrimitiveBlock(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to unmarshal primitive block: %v", ErrMalformed, err)
	}

	c := newBlockContext(blk)

	var entities []model.Entity

	for _, pg := range blk.Groups {
		if err := checkGroupNotEmpty(pg); err != nil {
			return nil, err
		}

		if readTypes.Has(model.NODE) {
			nodes, err := c.decodeNodes(pg.Nodes)
			if err != nil {
				return nil, err
			}
			entities = append(entities, nodes...)

			dense, err := c.decodeDenseNodes(pg.Dense)
			if err != nil {
				return nil, err
			}
			entities = append(entities, dense...)
		}

		if readTypes.Has(model.WAY) {
			ways, err := c.decodeWays(pg.Ways)
			if err != nil {
				return nil, err
			}
			entities = append(entities, ways...)
		}

		if readTypes.Has(model.RELATION) {
			relations, err := c.decodeRelations(pg.Relations)
			if err != nil {
				return nil, err
			}
			entities = append(entities, relations...)
		}

		if readTypes.Has(model.CHANGESET) {
			changesets, err := c.decodeChangesets(pg.Changesets)
			if err != nil {
				return nil, err
			}
			entities = append(entities, changesets...)
		}
	}

	return entities, nil
}

// checkGroupNotEmpty rejects a PrimitiveGroup carrying none of its five
// kinds of content. This is a wire-level malformation distinct from
// readTypes filtering a kind out after the fact.
func checkGroupNotEmpty(pg *pb.PrimitiveGroup) error {
	if len(pg.Nodes) == 0 && pg.Dense == nil && len(pg.Ways) == 0 && len(pg.Relations) == 0 && len(pg.Changesets) == 0 {
		return fmt.Errorf("%w: primitive group has no content", ErrMalformed)
	}

	return nil
}

type blockContext struct {
	strings         []string
	granularity     int32
	latOffset       int64
	lonOffset       int64
	dateGranularity int32
}

func newBlockContext(blk *pb.PrimitiveBlock) *blockContext {
	c := &blockContext{
		granularity:     blk.Granularity,
		latOffset:       blk.LatOffset,
		lonOffset:       blk.LonOffset,
		dateGranularity: blk.DateGranularity,
	}

	if blk.StringTable != nil {
		c.strings = make([]string, len(blk.StringTable.S))
		for i, s := range blk.StringTable.S {
			c.strings[i] = string(s)
		}
	}

	if c.granularity == 0 {
		c.granularity = pb.DefaultGranularity
	}

	if c.dateGranularity == 0 {
		c.dateGranularity = pb.DefaultDateGranularity
	}

	return c
}

func (c *blockContext) decodeNodes(nodes []*pb.Node) ([]model.Entity, error) {
	entities := make([]model.Entity, len(nodes))

	for i, node := range nodes {
		info, err := c.decodeInfo(node.Info)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", node.ID, err)
		}

		loc := model.UndefinedLocation
		if info.Visible {
			lon := model.ToDegrees(c.lonOffset, c.granularity, node.Lon)
			lat := model.ToDegrees(c.latOffset, c.granularity, node.Lat)
			loc = model.NewLocation(lon, lat)
		}

		tags, err := c.decodeTags(node.Keys, node.Vals)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", node.ID, err)
		}

		entities[i] = &model.Node{
			ID:       model.ID(node.ID),
			Tags:     tags,
			Info:     info,
			Location: loc,
		}
	}

	return entities, nil
}

func (c *blockContext) decodeDenseNodes(nodes *pb.DenseNodes) ([]model.Entity, error) {
	if nodes == nil {
		return nil, nil
	}

	ids := nodes.ID
	entities := make([]model.Entity, len(ids))

	tic := c.newTagsContext(nodes.KeysVals)
	dic := c.newDenseInfoContext(nodes.DenseInfo)
	lats := nodes.Lat
	lons := nodes.Lon

	var id, lat, lon int64
	for i := range ids {
		id += ids[i]
		lat += lats[i]
		lon += lons[i]

		info, err := dic.decodeInfo(i)
		if err != nil {
			return nil, fmt.Errorf("dense node %d: %w", id, err)
		}

		loc := model.UndefinedLocation
		if info.Visible {
			loc = model.NewLocation(
				model.ToDegrees(c.lonOffset, c.granularity, lon),
				model.ToDegrees(c.latOffset, c.granularity, lat),
			)
		}

		tags, err := tic.decodeTags()
		if err != nil {
			return nil, fmt.Errorf("dense node %d: %w", id, err)
		}

		entities[i] = &model.Node{
			ID:       model.ID(id),
			Tags:     tags,
			Info:     info,
			Location: loc,
		}
	}

	return entities, nil
}

func (c *blockContext) decodeWays(ways []*pb.Way) ([]model.Entity, error) {
	entities := make([]model.Entity, len(ways))

	for i, way := range ways {
		refs := way.Refs
		nodeIDs := make([]model.ID, len(refs))

		var nodeID int64

		for j, delta := range refs {
			nodeID += delta
			nodeIDs[j] = model.ID(nodeID)
		}

		tags, err := c.decodeTags(way.Keys, way.Vals)
		if err != nil {
			return nil, fmt.Errorf("way %d: %w", way.ID, err)
		}

		info, err := c.decodeInfo(way.Info)
		if err != nil {
			return nil, fmt.Errorf("way %d: %w", way.ID, err)
		}

		entities[i] = &model.Way{
			ID:      model.ID(way.ID),
			Tags:    tags,
			NodeIDs: nodeIDs,
			Info:    info,
		}
	}

	return entities, nil
}

func (c *blockContext) decodeRelations(relations []*pb.Relation) ([]model.Entity, error) {
	entities := make([]model.Entity, len(relations))

	for i, r := range relations {
		tags, err := c.decodeTags(r.Keys, r.Vals)
		if err != nil {
			return nil, fmt.Errorf("relation %d: %w", r.ID, err)
		}

		info, err := c.decodeInfo(r.Info)
		if err != nil {
			return nil, fmt.Errorf("relation %d: %w", r.ID, err)
		}

		members, err := c.decodeMembers(r)
		if err != nil {
			return nil, fmt.Errorf("relation %d: %w", r.ID, err)
		}

		entities[i] = &model.Relation{
			ID:      model.ID(r.ID),
			Tags:    tags,
			Info:    info,
			Members: members,
		}
	}

	return entities, nil
}

func (c *blockContext) decodeChangesets(changesets []*pb.ChangeSet) ([]model.Entity, error) {
	entities := make([]model.Entity, len(changesets))

	for i, cs := range changesets {
		tags, err := c.decodeTags(cs.Keys, cs.Vals)
		if err != nil {
			return nil, fmt.Errorf("changeset %d: %w", cs.ID, err)
		}

		user, err := c.stringAt(int(cs.UserSID))
		if err != nil {
			return nil, fmt.Errorf("changeset %d: %w", cs.ID, err)
		}

		entities[i] = &model.Changeset{
			ID:   model.ID(cs.ID),
			Tags: tags,
			Info: &model.Info{
				UID:       model.UID(cs.UID),
				User:      user,
				Timestamp: time.Unix(cs.CreatedAt, 0).UTC(),
			},
			ClosedAt:   time.Unix(cs.ClosedAt, 0).UTC(),
			Open:       cs.Open,
			NumChanges: cs.NumChanges,
		}
	}

	return entities, nil
}

func (c *blockContext) decodeMembers(r *pb.Relation) ([]model.Member, error) {
	memids := r.MemIDs
	memtypes := r.Types
	memroles := r.RolesSID
	members := make([]model.Member, len(memids))

	var memid int64

	for i := range memids {
		memid += memids[i]

		typ, err := decodeMemberType(memtypes[i])
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", memid, err)
		}

		role, err := c.stringAt(int(memroles[i]))
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", memid, err)
		}

		members[i] = model.Member{ID: model.ID(memid), Type: typ, Role: role}
	}

	return members, nil
}

func (c *blockContext) decodeTags(keyIDs, valIDs []uint32) (map[string]string, error) {
	tags := make(map[string]string, len(keyIDs))

	for i, keyID := range keyIDs {
		key, err := c.stringAt(int(keyID))
		if err != nil {
			return nil, err
		}

		val, err := c.stringAt(int(valIDs[i]))
		if err != nil {
			return nil, err
		}

		tags[key] = val
	}

	return tags, nil
}

// stringAt resolves an index into the block's shared string table. An
// out-of-range index is per-entity corruption, fatal for the whole block.
func (c *blockContext) stringAt(i int) (string, error) {
	if i < 0 || i >= len(c.strings) {
		return "", fmt.Errorf("%w: stringtable index %d out of range (table size %d)", ErrMalformed, i, len(c.strings))
	}

	return c.strings[i], nil
}

func (c *blockContext) decodeInfo(info *pb.Info) (*model.Info, error) {
	i := &model.Info{Visible: true}
	if info != nil {
		i.Version = info.Version
		i.Timestamp = toTimestamp(c.dateGranularity, int32(info.Timestamp))
		i.Changeset = info.Changeset
		i.UID = model.UID(info.UID)

		user, err := c.stringAt(int(info.UserSID))
		if err != nil {
			return nil, err
		}
		i.User = user

		if info.HasVisible {
			i.Visible = info.Visible
		}
	}

	return i, nil
}

func (c *blockContext) newDenseInfoContext(di *pb.DenseInfo) *denseInfoContext {
	if di == nil {
		return &denseInfoContext{dateGranularity: c.dateGranularity, strings: c.strings}
	}

	uids := make([]model.UID, len(di.UID))
	for i, uid := range di.UID {
		uids[i] = model.UID(uid)
	}

	dic := &denseInfoContext{
		dateGranularity: c.dateGranularity,
		strings:         c.strings,
		versions:        di.Version,
		uids:            uids,
		timestamps:      di.Timestamp,
		changesets:      di.Changeset,
		userSids:        di.UserSID,
		visibilities:    di.Visible,
	}

	return dic
}

type denseInfoContext struct {
	version   int32
	timestamp int64
	changeset int64
	uid       model.UID
	userSid   int32

	dateGranularity int32
	strings         []string
	versions        []int32
	uids            []model.UID
	timestamps      []int64
	changesets      []int64
	userSids        []int32
	visibilities    []bool
}

func (dic *denseInfoContext) decodeInfo(i int) (*model.Info, error) {
	if i < len(dic.versions) {
		dic.version += dic.versions[i]
	}

	if i < len(dic.uids) {
		dic.uid += dic.uids[i]
	}

	if i < len(dic.timestamps) {
		dic.timestamp += dic.timestamps[i]
	}

	if i < len(dic.changesets) {
		dic.changeset += dic.changesets[i]
	}

	if i < len(dic.userSids) {
		dic.userSid += dic.userSids[i]
	}

	user, err := dic.stringAt(int(dic.userSid))
	if err != nil {
		return nil, err
	}

	info := &model.Info{
		Version:   dic.version,
		UID:       dic.uid,
		Timestamp: toTimestamp(dic.dateGranularity, int32(dic.timestamp)),
		Changeset: dic.changeset,
		User:      user,
	}

	if dic.visibilities == nil {
		info.Visible = true
	} else {
		info.Visible = dic.visibilities[i]
	}

	return info, nil
}

// stringAt resolves an index into the block's shared string table. An
// out-of-range index is per-entity corruption, fatal for the whole block.
func (dic *denseInfoContext) stringAt(i int) (string, error) {
	if i < 0 || i >= len(dic.strings) {
		return "", fmt.Errorf("%w: stringtable index %d out of range (table size %d)", ErrMalformed, i, len(dic.strings))
	}

	return dic.strings[i], nil
}

type tagsContext struct {
	strings []string
	i       int
	keyVals []int32
}

func (c *blockContext) newTagsContext(keyVals []int32) *tagsContext {
	tc := &tagsContext{strings: c.strings}

	if len(keyVals) != 0 {
		tc.keyVals = keyVals
	}

	return tc
}

func (tic *tagsContext) decodeTags() (map[string]string, error) {
	if tic.keyVals == nil {
		return map[string]string{}, nil
	}

	tags := make(map[string]string)
	i := tic.i

	for tic.keyVals[i] > 0 {
		k := int(tic.keyVals[i])
		if k < 0 || k >= len(tic.strings) {
			return nil, fmt.Errorf("%w: stringtable index %d out of range (table size %d)", ErrMalformed, k, len(tic.strings))
		}

		v := int(tic.keyVals[i+1])
		if v < 0 || v >= len(tic.strings) {
			return nil, fmt.Errorf("%w: stringtable index %d out of range (table size %d)", ErrMalformed, v, len(tic.strings))
		}

		tags[tic.strings[k]] = tic.strings[v]
		i += 2
	}

	tic.i = i + 1

	return tags, nil
}

// decodeMemberType converts the wire MemberType enum to a model.EntityType.
// An unrecognized value is per-entity corruption, fatal for the whole block.
func decodeMemberType(mt pb.MemberType) (model.EntityType, error) {
	switch mt {
	case pb.MemberNode:
		return model.NODE, nil
	case pb.MemberWay:
		return model.WAY, nil
	case pb.MemberRelation:
		return model.RELATION, nil
	default:
		return 0, fmt.Errorf("%w: unrecognized relation member type %d", ErrMalformed, mt)
	}
}

// toTimestamp converts a timestamp with a specific granularity, in units of
// milliseconds, to a UTC timestamp of type Time.
func toTimestamp(granularity int32, timestamp int32) time.Time {
	return time.UnixMilli(int64(timestamp) * int64(granularity)).UTC()
}
