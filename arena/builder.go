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
	"errors"
	"fmt"

	"github.com/halvorn/osmpbf/model"
)

// ErrBuilderClosed is returned when a Builder method is called after
// Close has already finalized it.
var ErrBuilderClosed = errors.New("arena: builder already closed")

// Builder appends one well-formed entity or sub-item to a Buffer. It
// reserves and commits space for a fixed-size record when it is created;
// Close writes the item's final payload length into its prefix.
//
// Builders nest the way libosmium's do: a parent builder (a WayBuilder,
// say) hands out child builders (a TagListBuilder, a WayNodeListBuilder)
// for its variable-length sub-items, and the parent's total size isn't
// known until every child has been closed. In C++ this falls naturally
// out of destructor order; in Go the equivalent is closing children
// before their parent, which a defer stack gives you for free as long as
// each child's defer is registered after its parent's.
type Builder struct {
	buf    *Buffer
	kind   Kind
	start  int // offset into buf.data where this item's prefix begins
	parent *Builder
	closed bool
}

func newBuilder(buf *Buffer, kind Kind, parent *Builder, fixedPayload int) (*Builder, error) {
	span, err := buf.Reserve(entryPrefixSize + align8(fixedPayload))
	if err != nil {
		return nil, err
	}

	start := buf.committed

	span[0] = byte(kind)
	span[1], span[2], span[3] = 0, 0, 0

	buf.Commit(entryPrefixSize + align8(fixedPayload))

	return &Builder{buf: buf, kind: kind, start: start, parent: parent}, nil
}

// payload returns the mutable bytes of this item after its prefix, up to
// the buffer's current committed watermark. Valid only before Close.
func (b *Builder) payload() []byte {
	return b.buf.data[b.start+entryPrefixSize : b.buf.committed]
}

// appendBytes reserves and commits n more (8-byte aligned) bytes
// belonging to this item, returning the raw span to fill in.
func (b *Builder) appendBytes(n int) ([]byte, error) {
	aligned := align8(n)

	span, err := b.buf.Reserve(aligned)
	if err != nil {
		return nil, err
	}

	b.buf.Commit(aligned)

	return span[:n], nil
}

// appendUserString appends the entity header's trailing user-name field:
// a NUL-terminated string whose byte length putObjectHeader already wrote
// into the fixed header's user-length slot. It must run immediately after
// putObjectHeader, before any child builder, so that the user string
// always sits directly after the fixed header and before sub-items.
func (b *Builder) appendUserString(user string) error {
	span, err := b.appendBytes(len(user) + 1)
	if err != nil {
		return err
	}

	copy(span, user)
	span[len(user)] = 0

	return nil
}

// Close finalizes the item: it writes the total payload length into the
// item's prefix. It is idempotent; calling it more than once is a no-op.
// Close must be called on every child builder before its parent's Close
// runs, which a straightforward defer stack gives for free.
func (b *Builder) Close() error {
	if b.closed {
		return nil
	}

	b.closed = true

	length := b.buf.committed - b.start - entryPrefixSize
	binary.LittleEndian.PutUint32(b.buf.data[b.start+4:b.start+8], uint32(length))

	return nil
}

func putObjectHeader(span []byte, id model.ID, info *model.Info) {
	binary.LittleEndian.PutUint64(span[0:8], uint64(id))

	if info == nil {
		return
	}

	binary.LittleEndian.PutUint32(span[8:12], uint32(info.Version))

	if info.Visible {
		span[12] = 1
	} else {
		span[12] = 0
	}

	binary.LittleEndian.PutUint64(span[16:24], uint64(info.Timestamp.UnixNano()))
	binary.LittleEndian.PutUint64(span[24:32], uint64(info.Changeset))
	binary.LittleEndian.PutUint32(span[32:36], uint32(info.UID))
	binary.LittleEndian.PutUint32(span[36:40], uint32(len(info.User)))
}

// userOf returns info.User, or "" for a nil Info.
func userOf(info *model.Info) string {
	if info == nil {
		return ""
	}

	return info.User
}

// NodeBuilder appends a Node entity.
type NodeBuilder struct {
	*Builder
}

// NewNodeBuilder starts building a Node with the given id, info, and
// location. The caller must Close the returned builder (typically via
// defer) once any child TagListBuilder has been closed.
func NewNodeBuilder(buf *Buffer, id model.ID, info *model.Info, loc model.Location) (*NodeBuilder, error) {
	b, err := newBuilder(buf, KindNode, nil, objectHeaderSize)
	if err != nil {
		return nil, err
	}

	putObjectHeader(b.payload(), id, info)

	if err := b.appendUserString(userOf(info)); err != nil {
		return nil, err
	}

	span, err := b.appendBytes(locationSize)
	if err != nil {
		return nil, err
	}

	binary.LittleEndian.PutUint32(span[0:4], uint32(loc.LonE7()))
	binary.LittleEndian.PutUint32(span[4:8], uint32(loc.LatE7()))

	return &NodeBuilder{Builder: b}, nil
}

// WayBuilder appends a Way entity.
type WayBuilder struct {
	*Builder
}

// NewWayBuilder starts building a Way. The caller adds its node
// reference list and tags as child builders, then Closes them before
// closing this one.
func NewWayBuilder(buf *Buffer, id model.ID, info *model.Info) (*WayBuilder, error) {
	b, err := newBuilder(buf, KindWay, nil, objectHeaderSize)
	if err != nil {
		return nil, err
	}

	putObjectHeader(b.payload(), id, info)

	if err := b.appendUserString(userOf(info)); err != nil {
		return nil, err
	}

	return &WayBuilder{Builder: b}, nil
}

// RelationBuilder appends a Relation entity.
type RelationBuilder struct {
	*Builder
}

// NewRelationBuilder starts building a Relation.
func NewRelationBuilder(buf *Buffer, id model.ID, info *model.Info) (*RelationBuilder, error) {
	b, err := newBuilder(buf, KindRelation, nil, objectHeaderSize)
	if err != nil {
		return nil, err
	}

	putObjectHeader(b.payload(), id, info)

	if err := b.appendUserString(userOf(info)); err != nil {
		return nil, err
	}

	return &RelationBuilder{Builder: b}, nil
}

// ChangesetBuilder appends a Changeset entity.
type ChangesetBuilder struct {
	*Builder
}

// NewChangesetBuilder starts building a Changeset.
func NewChangesetBuilder(buf *Buffer, cs model.Changeset) (*ChangesetBuilder, error) {
	const fixed = 24 // id(8) uid(4) open+pad(4) num_changes(4) user string length(4)

	b, err := newBuilder(buf, KindChangeset, nil, fixed)
	if err != nil {
		return nil, err
	}

	span := b.payload()
	binary.LittleEndian.PutUint64(span[0:8], uint64(cs.ID))
	binary.LittleEndian.PutUint32(span[8:12], uint32(cs.Info.UID))

	if cs.Open {
		span[12] = 1
	}

	binary.LittleEndian.PutUint32(span[16:20], uint32(cs.NumChanges))
	binary.LittleEndian.PutUint32(span[20:24], uint32(len(userOf(cs.Info))))

	if err := b.appendUserString(userOf(cs.Info)); err != nil {
		return nil, err
	}

	return &ChangesetBuilder{Builder: b}, nil
}

// TagListBuilder appends a nested list of key/value tag strings, stored
// as consecutive NUL-terminated string pairs padded to 8 bytes.
type TagListBuilder struct {
	*Builder
}

// NewTagListBuilder starts a TagList nested inside parent.
func NewTagListBuilder(buf *Buffer, parent *Builder) (*TagListBuilder, error) {
	b, err := newBuilder(buf, KindTagList, parent, 0)
	if err != nil {
		return nil, err
	}

	return &TagListBuilder{Builder: b}, nil
}

// Add appends one key/value tag pair.
func (t *TagListBuilder) Add(key, value string) error {
	if t.closed {
		return ErrBuilderClosed
	}

	n := len(key) + 1 + len(value) + 1

	span, err := t.appendBytes(n)
	if err != nil {
		return err
	}

	copy(span, key)
	span[len(key)] = 0
	copy(span[len(key)+1:], value)
	span[len(key)+1+len(value)] = 0

	return nil
}

// NodeRefListBuilder appends a list of member-node id/location pairs: a
// way's node list, or one ring of a multipolygon area.
type NodeRefListBuilder struct {
	*Builder
}

func newNodeRefListBuilder(buf *Buffer, parent *Builder, kind Kind) (*NodeRefListBuilder, error) {
	b, err := newBuilder(buf, kind, parent, 0)
	if err != nil {
		return nil, err
	}

	return &NodeRefListBuilder{Builder: b}, nil
}

// NewWayNodeListBuilder starts a Way's ordered node reference list.
func NewWayNodeListBuilder(buf *Buffer, parent *Builder) (*NodeRefListBuilder, error) {
	return newNodeRefListBuilder(buf, parent, KindWayNodeList)
}

// NewOuterRingBuilder starts one outer ring of a multipolygon area.
func NewOuterRingBuilder(buf *Buffer, parent *Builder) (*NodeRefListBuilder, error) {
	return newNodeRefListBuilder(buf, parent, KindOuterRing)
}

// NewInnerRingBuilder starts one inner ring of a multipolygon area.
func NewInnerRingBuilder(buf *Buffer, parent *Builder) (*NodeRefListBuilder, error) {
	return newNodeRefListBuilder(buf, parent, KindInnerRing)
}

// Add appends one node reference.
func (l *NodeRefListBuilder) Add(id model.ID, loc model.Location) error {
	if l.closed {
		return ErrBuilderClosed
	}

	span, err := l.appendBytes(nodeRefSize)
	if err != nil {
		return err
	}

	binary.LittleEndian.PutUint64(span[0:8], uint64(id))
	binary.LittleEndian.PutUint32(span[8:12], uint32(loc.LonE7()))
	binary.LittleEndian.PutUint32(span[12:16], uint32(loc.LatE7()))

	return nil
}

// RelationMemberListBuilder appends a relation's member list.
type RelationMemberListBuilder struct {
	*Builder
}

// NewRelationMemberListBuilder starts a Relation's member list.
func NewRelationMemberListBuilder(buf *Buffer, parent *Builder) (*RelationMemberListBuilder, error) {
	b, err := newBuilder(buf, KindRelationMemberList, parent, 0)
	if err != nil {
		return nil, err
	}

	return &RelationMemberListBuilder{Builder: b}, nil
}

// Add appends one relation member: the id of the referenced entity, its
// type, and its role within the relation.
func (l *RelationMemberListBuilder) Add(id model.ID, memberType model.EntityType, role string) error {
	if l.closed {
		return ErrBuilderClosed
	}

	n := relationMemberFixedSize + len(role) + 1

	span, err := l.appendBytes(n)
	if err != nil {
		return fmt.Errorf("arena: relation member: %w", err)
	}

	binary.LittleEndian.PutUint64(span[0:8], uint64(id))
	span[8] = byte(memberType)
	binary.LittleEndian.PutUint32(span[12:16], uint32(len(role)))
	copy(span[relationMemberFixedSize:], role)
	span[relationMemberFixedSize+len(role)] = 0

	return nil
}
