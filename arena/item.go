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

package arena

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/halvorn/osmpbf/model"
)

// subItems walks the sub-items (tag lists, node-ref lists, member lists)
// nested after a fixed-size object header within an item's payload.
func subItems(payload []byte) []Item {
	var items []Item

	for len(payload) >= entryPrefixSize {
		kind := Kind(payload[0])
		length := binary.LittleEndian.Uint32(payload[4:8])
		total := entryPrefixSize + int(length)

		if total > len(payload) {
			break
		}

		items = append(items, Item{Kind: kind, raw: payload[:total]})
		payload = payload[total:]
	}

	return items
}

func readObjectHeader(raw []byte) (id model.ID, info *model.Info, rest []byte) {
	span := raw[entryPrefixSize:]

	userLen := int(binary.LittleEndian.Uint32(span[36:40]))

	id = model.ID(binary.LittleEndian.Uint64(span[0:8]))
	info = &model.Info{
		Version:   int32(binary.LittleEndian.Uint32(span[8:12])),
		Visible:   span[12] != 0,
		Timestamp: time.Unix(0, int64(binary.LittleEndian.Uint64(span[16:24]))).UTC(),
		Changeset: int64(binary.LittleEndian.Uint64(span[24:32])),
		UID:       model.UID(binary.LittleEndian.Uint32(span[32:36])),
	}

	userSpan := span[objectHeaderSize:]
	info.User = string(userSpan[:userLen])

	return id, info, userSpan[align8(userLen+1):]
}

// readTagList decodes a TagList sub-item. Each key/value pair was
// committed as its own 8-byte-aligned block (TagListBuilder.Add calls
// appendBytes once per pair), so a pair's total consumed length is the
// aligned sum of its two NUL-terminated strings, not each string aligned
// individually.
func readTagList(payload []byte) map[string]string {
	tags := make(map[string]string)

	for _, it := range subItems(payload) {
		if it.Kind != KindTagList {
			continue
		}

		body := it.raw[entryPrefixSize:]
		for len(body) > 0 {
			key, ki := readCString(body)
			val, vi := readCString(body[ki:])
			tags[key] = val
			body = body[align8(ki+vi):]
		}
	}

	return tags
}

// readCString reads one NUL-terminated string starting at b[0] and
// returns it along with the number of bytes consumed, NUL included. It
// does not itself pad to an 8-byte boundary; callers that know two
// strings were committed together as one aligned block do that once,
// over their combined length.
func readCString(b []byte) (string, int) {
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), i + 1
		}
	}

	return string(b), len(b)
}

// NodeView is a lazily-decoded read-only view of a Node item.
type NodeView struct{ it Item }

// AsNode interprets the item as a Node view. ok is false if the item's
// kind isn't KindNode.
func (it Item) AsNode() (NodeView, bool) {
	if it.Kind != KindNode {
		return NodeView{}, false
	}

	return NodeView{it: it}, true
}

func (v NodeView) ID() model.ID { id, _, _ := readObjectHeader(v.it.raw); return id }

func (v NodeView) Info() *model.Info { _, info, _ := readObjectHeader(v.it.raw); return info }

func (v NodeView) Location() model.Location {
	_, _, rest := readObjectHeader(v.it.raw)
	lon := int32(binary.LittleEndian.Uint32(rest[0:4]))
	lat := int32(binary.LittleEndian.Uint32(rest[4:8]))

	return model.LocationFromE7(lon, lat)
}

func (v NodeView) Tags() map[string]string {
	_, _, rest := readObjectHeader(v.it.raw)

	return readTagList(rest[locationSize:])
}

// ToEntity materializes a NodeView as a model.Node value.
func (v NodeView) ToEntity() model.Node {
	return model.Node{
		ID:       v.ID(),
		Tags:     v.Tags(),
		Info:     v.Info(),
		Location: v.Location(),
	}
}

// WayView is a lazily-decoded read-only view of a Way item.
type WayView struct{ it Item }

func (it Item) AsWay() (WayView, bool) {
	if it.Kind != KindWay {
		return WayView{}, false
	}

	return WayView{it: it}, true
}

func (v WayView) ID() model.ID { id, _, _ := readObjectHeader(v.it.raw); return id }

func (v WayView) Info() *model.Info { _, info, _ := readObjectHeader(v.it.raw); return info }

func (v WayView) Tags() map[string]string {
	_, _, rest := readObjectHeader(v.it.raw)

	return readTagList(rest)
}

func (v WayView) NodeIDs() []model.ID {
	_, _, rest := readObjectHeader(v.it.raw)

	var ids []model.ID

	for _, sub := range subItems(rest) {
		if sub.Kind != KindWayNodeList {
			continue
		}

		body := sub.raw[entryPrefixSize:]
		for len(body) >= nodeRefSize {
			ids = append(ids, model.ID(binary.LittleEndian.Uint64(body[0:8])))
			body = body[nodeRefSize:]
		}
	}

	return ids
}

// ToEntity materializes a WayView as a model.Way value.
func (v WayView) ToEntity() model.Way {
	return model.Way{
		ID:      v.ID(),
		Tags:    v.Tags(),
		Info:    v.Info(),
		NodeIDs: v.NodeIDs(),
	}
}

// RelationView is a lazily-decoded read-only view of a Relation item.
type RelationView struct{ it Item }

func (it Item) AsRelation() (RelationView, bool) {
	if it.Kind != KindRelation {
		return RelationView{}, false
	}

	return RelationView{it: it}, true
}

func (v RelationView) ID() model.ID { id, _, _ := readObjectHeader(v.it.raw); return id }

func (v RelationView) Info() *model.Info { _, info, _ := readObjectHeader(v.it.raw); return info }

func (v RelationView) Tags() map[string]string {
	_, _, rest := readObjectHeader(v.it.raw)

	return readTagList(rest)
}

func (v RelationView) Members() []model.Member {
	_, _, rest := readObjectHeader(v.it.raw)

	var members []model.Member

	for _, sub := range subItems(rest) {
		if sub.Kind != KindRelationMemberList {
			continue
		}

		body := sub.raw[entryPrefixSize:]
		for len(body) >= relationMemberFixedSize {
			id := model.ID(binary.LittleEndian.Uint64(body[0:8]))
			typ := model.EntityType(body[8])
			roleLen := int(binary.LittleEndian.Uint32(body[12:16]))
			role := string(body[relationMemberFixedSize : relationMemberFixedSize+roleLen])

			members = append(members, model.Member{ID: id, Type: typ, Role: role})

			body = body[align8(relationMemberFixedSize+roleLen+1):]
		}
	}

	return members
}

// ToEntity materializes a RelationView as a model.Relation value.
func (v RelationView) ToEntity() model.Relation {
	return model.Relation{
		ID:      v.ID(),
		Tags:    v.Tags(),
		Info:    v.Info(),
		Members: v.Members(),
	}
}

// ChangesetView is a lazily-decoded read-only view of a Changeset item.
type ChangesetView struct{ it Item }

func (it Item) AsChangeset() (ChangesetView, bool) {
	if it.Kind != KindChangeset {
		return ChangesetView{}, false
	}

	return ChangesetView{it: it}, true
}

func (v ChangesetView) ID() model.ID {
	span := v.it.raw[entryPrefixSize:]

	return model.ID(binary.LittleEndian.Uint64(span[0:8]))
}

func (v ChangesetView) UID() model.UID {
	span := v.it.raw[entryPrefixSize:]

	return model.UID(binary.LittleEndian.Uint32(span[8:12]))
}

func (v ChangesetView) Open() bool {
	span := v.it.raw[entryPrefixSize:]

	return span[12] != 0
}

func (v ChangesetView) NumChanges() int32 {
	span := v.it.raw[entryPrefixSize:]

	return int32(binary.LittleEndian.Uint32(span[16:20]))
}

func (v ChangesetView) User() string {
	span := v.it.raw[entryPrefixSize:]
	userLen := int(binary.LittleEndian.Uint32(span[20:24]))

	return string(span[24 : 24+userLen])
}

// ToEntity materializes a ChangesetView as a model.Changeset value.
func (v ChangesetView) ToEntity() model.Changeset {
	return model.Changeset{
		ID:         v.ID(),
		Info:       &model.Info{UID: v.UID(), User: v.User()},
		Open:       v.Open(),
		NumChanges: v.NumChanges(),
	}
}

// String renders an Item's kind and size, useful for debugging.
func (it Item) String() string {
	return fmt.Sprintf("%s(%d bytes)", it.Kind, len(it.raw))
}
