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

// StringTable is the per-PrimitiveBlock interning table. Index 0 is
// reserved as the sentinel empty string.
type StringTable struct {
	S [][]byte
}

func (t *StringTable) Marshal() []byte {
	var b []byte

	for _, s := range t.S {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, s)
	}

	return b
}

func unmarshalStringTable(b []byte) (*StringTable, error) {
	t := &StringTable{}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("pb: StringTable: bad tag: %w", protowire.ParseError(n))
		}

		b = b[n:]

		if num != 1 {
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return nil, fmt.Errorf("pb: StringTable: bad field %d: %w", num, protowire.ParseError(m))
			}

			b = b[m:]

			continue
		}

		v, m := protowire.ConsumeBytes(b)
		if m < 0 {
			return nil, fmt.Errorf("pb: StringTable.s: %w", protowire.ParseError(m))
		}

		t.S = append(t.S, append([]byte(nil), v...))
		b = b[m:]
	}

	return t, nil
}

// Info is the per-entity metadata block common to plain Node/Way/Relation
// messages (dense nodes use the columnar DenseInfo instead).
type Info struct {
	Version   int32
	Timestamp int64
	Changeset int64
	UID       int32
	UserSID   uint32
	Visible   bool
	HasVisible bool
}

func (info *Info) Marshal() []byte {
	var b []byte

	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(uint32(info.Version)))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(info.Timestamp))
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(info.Changeset))
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(uint32(info.UID)))
	b = protowire.AppendTag(b, 5, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(info.UserSID))

	if info.HasVisible {
		b = protowire.AppendTag(b, 6, protowire.VarintType)

		v := uint64(0)
		if info.Visible {
			v = 1
		}

		b = protowire.AppendVarint(b, v)
	}

	return b
}

func unmarshalInfo(b []byte) (*Info, error) {
	info := &Info{Visible: true}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("pb: Info: bad tag: %w", protowire.ParseError(n))
		}

		b = b[n:]

		if typ != protowire.VarintType {
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return nil, fmt.Errorf("pb: Info: bad field %d: %w", num, protowire.ParseError(m))
			}

			b = b[m:]

			continue
		}

		v, m := protowire.ConsumeVarint(b)
		if m < 0 {
			return nil, fmt.Errorf("pb: Info field %d: %w", num, protowire.ParseError(m))
		}

		b = b[m:]

		switch num {
		case 1:
			info.Version = int32(v)
		case 2:
			info.Timestamp = int64(v)
		case 3:
			info.Changeset = int64(v)
		case 4:
			info.UID = int32(v)
		case 5:
			info.UserSID = uint32(v)
		case 6:
			info.Visible = v != 0
			info.HasVisible = true
		}
	}

	return info, nil
}

// DenseInfo is the columnar, delta-encoded metadata for a DenseNodes group.
type DenseInfo struct {
	Version   []int32
	Timestamp []int64 // delta-encoded (zigzag) on the wire
	Changeset []int64 // delta-encoded (zigzag) on the wire
	UID       []int32 // delta-encoded (zigzag) on the wire
	UserSID   []int32 // delta-encoded (zigzag) on the wire
	Visible   []bool
}

func (di *DenseInfo) Marshal() []byte {
	var b []byte

	b = appendPackedUvarint(b, 1, di.Version)
	b = appendPackedSint64(b, 2, di.Timestamp)
	b = appendPackedSint64(b, 3, di.Changeset)
	b = appendPackedSint64(b, 4, int32ToInt64(di.UID))
	b = appendPackedSint64(b, 5, int32ToInt64(di.UserSID))
	b = appendPackedVarint(b, 6, di.Visible)

	return b
}

func int32ToInt64(vs []int32) []int64 {
	out := make([]int64, len(vs))
	for i, v := range vs {
		out[i] = int64(v)
	}

	return out
}

func unmarshalDenseInfo(b []byte) (*DenseInfo, error) {
	di := &DenseInfo{}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("pb: DenseInfo: bad tag: %w", protowire.ParseError(n))
		}

		b = b[n:]

		vals, m, ok := consumePackedOrSingleVarint(b, typ)
		if !ok {
			m = protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return nil, fmt.Errorf("pb: DenseInfo: bad field %d: %w", num, protowire.ParseError(m))
			}

			b = b[m:]

			continue
		}

		b = b[m:]

		switch num {
		case 1:
			di.Version = append(di.Version, int32All(vals)...)
		case 2:
			di.Timestamp = append(di.Timestamp, zigzagAll(vals)...)
		case 3:
			di.Changeset = append(di.Changeset, zigzagAll(vals)...)
		case 4:
			for _, v := range zigzagAll(vals) {
				di.UID = append(di.UID, int32(v))
			}
		case 5:
			for _, v := range zigzagAll(vals) {
				di.UserSID = append(di.UserSID, int32(v))
			}
		case 6:
			di.Visible = append(di.Visible, boolAll(vals)...)
		}
	}

	return di, nil
}

// Node is a plain (non-dense) node record.
type Node struct {
	ID   int64
	Keys []uint32
	Vals []uint32
	Info *Info
	Lat  int64
	Lon  int64
}

func (node *Node) Marshal() []byte {
	var b []byte

	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(node.ID))
	b = appendPackedUvarint(b, 2, node.Keys)
	b = appendPackedUvarint(b, 3, node.Vals)

	if node.Info != nil {
		ib := node.Info.Marshal()
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendVarint(b, uint64(len(ib)))
		b = append(b, ib...)
	}

	b = protowire.AppendTag(b, 8, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(node.Lat))
	b = protowire.AppendTag(b, 9, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(node.Lon))

	return b
}

func unmarshalNode(b []byte) (*Node, error) {
	node := &Node{}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("pb: Node: bad tag: %w", protowire.ParseError(n))
		}

		b = b[n:]

		switch num {
		case 1, 8, 9:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: Node field %d: %w", num, protowire.ParseError(m))
			}

			signed := protowire.DecodeZigZag(v)

			switch num {
			case 1:
				node.ID = signed
			case 8:
				node.Lat = signed
			case 9:
				node.Lon = signed
			}

			b = b[m:]
		case 2, 3:
			vals, m, ok := consumePackedOrSingleVarint(b, typ)
			if !ok {
				return nil, fmt.Errorf("pb: Node field %d: bad packed varint", num)
			}

			if num == 2 {
				node.Keys = append(node.Keys, uint32All(vals)...)
			} else {
				node.Vals = append(node.Vals, uint32All(vals)...)
			}

			b = b[m:]
		case 4:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: Node.info: %w", protowire.ParseError(m))
			}

			info, err := unmarshalInfo(v)
			if err != nil {
				return nil, err
			}

			node.Info = info
			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return nil, fmt.Errorf("pb: Node: bad field %d: %w", num, protowire.ParseError(m))
			}

			b = b[m:]
		}
	}

	return node, nil
}

// DenseNodes is the column-oriented, delta-encoded bulk node representation.
type DenseNodes struct {
	ID        []int64 // delta-encoded
	DenseInfo *DenseInfo
	Lat       []int64 // delta-encoded
	Lon       []int64 // delta-encoded
	KeysVals  []int32
}

func (dn *DenseNodes) Marshal() []byte {
	var b []byte

	b = appendPackedSint64(b, 1, dn.ID)

	if dn.DenseInfo != nil {
		dib := dn.DenseInfo.Marshal()
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		b = protowire.AppendVarint(b, uint64(len(dib)))
		b = append(b, dib...)
	}

	b = appendPackedSint64(b, 8, dn.Lat)
	b = appendPackedSint64(b, 9, dn.Lon)
	b = appendPackedUvarint(b, 10, dn.KeysVals)

	return b
}

func unmarshalDenseNodes(b []byte) (*DenseNodes, error) {
	dn := &DenseNodes{}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("pb: DenseNodes: bad tag: %w", protowire.ParseError(n))
		}

		b = b[n:]

		if num == 5 {
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: DenseNodes.denseinfo: %w", protowire.ParseError(m))
			}

			di, err := unmarshalDenseInfo(v)
			if err != nil {
				return nil, err
			}

			dn.DenseInfo = di
			b = b[m:]

			continue
		}

		vals, m, ok := consumePackedOrSingleVarint(b, typ)
		if !ok {
			m = protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return nil, fmt.Errorf("pb: DenseNodes: bad field %d: %w", num, protowire.ParseError(m))
			}

			b = b[m:]

			continue
		}

		b = b[m:]

		switch num {
		case 1:
			dn.ID = append(dn.ID, zigzagAll(vals)...)
		case 8:
			dn.Lat = append(dn.Lat, zigzagAll(vals)...)
		case 9:
			dn.Lon = append(dn.Lon, zigzagAll(vals)...)
		case 10:
			dn.KeysVals = append(dn.KeysVals, int32All(vals)...)
		}
	}

	return dn, nil
}

// Way is a way record; NodeRefs (field 8) is delta-encoded on the wire.
type Way struct {
	ID   int64
	Keys []uint32
	Vals []uint32
	Info *Info
	Refs []int64 // delta-encoded
}

func (w *Way) Marshal() []byte {
	var b []byte

	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(w.ID))
	b = appendPackedUvarint(b, 2, w.Keys)
	b = appendPackedUvarint(b, 3, w.Vals)

	if w.Info != nil {
		ib := w.Info.Marshal()
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendVarint(b, uint64(len(ib)))
		b = append(b, ib...)
	}

	b = appendPackedSint64(b, 8, w.Refs)

	return b
}

func unmarshalWay(b []byte) (*Way, error) {
	w := &Way{}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("pb: Way: bad tag: %w", protowire.ParseError(n))
		}

		b = b[n:]

		switch num {
		case 1:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: Way.id: %w", protowire.ParseError(m))
			}

			w.ID = int64(v)
			b = b[m:]
		case 4:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: Way.info: %w", protowire.ParseError(m))
			}

			info, err := unmarshalInfo(v)
			if err != nil {
				return nil, err
			}

			w.Info = info
			b = b[m:]
		case 2, 3, 8:
			vals, m, ok := consumePackedOrSingleVarint(b, typ)
			if !ok {
				return nil, fmt.Errorf("pb: Way field %d: bad packed varint", num)
			}

			switch num {
			case 2:
				w.Keys = append(w.Keys, uint32All(vals)...)
			case 3:
				w.Vals = append(w.Vals, uint32All(vals)...)
			case 8:
				w.Refs = append(w.Refs, zigzagAll(vals)...)
			}

			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return nil, fmt.Errorf("pb: Way: bad field %d: %w", num, protowire.ParseError(m))
			}

			b = b[m:]
		}
	}

	return w, nil
}

// MemberType mirrors the PBF relation-member-type enum.
type MemberType int32

const (
	MemberNode MemberType = iota
	MemberWay
	MemberRelation
)

// Relation is a relation record; MemIDs (field 9) is delta-encoded.
type Relation struct {
	ID       int64
	Keys     []uint32
	Vals     []uint32
	Info     *Info
	RolesSID []int32
	MemIDs   []int64 // delta-encoded
	Types    []MemberType
}

func (r *Relation) Marshal() []byte {
	var b []byte

	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.ID))
	b = appendPackedUvarint(b, 2, r.Keys)
	b = appendPackedUvarint(b, 3, r.Vals)

	if r.Info != nil {
		ib := r.Info.Marshal()
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendVarint(b, uint64(len(ib)))
		b = append(b, ib...)
	}

	b = appendPackedUvarint(b, 8, r.RolesSID)
	b = appendPackedSint64(b, 9, r.MemIDs)
	b = appendPackedUvarint(b, 10, r.Types)

	return b
}

func unmarshalRelation(b []byte) (*Relation, error) {
	r := &Relation{}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("pb: Relation: bad tag: %w", protowire.ParseError(n))
		}

		b = b[n:]

		switch num {
		case 1:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: Relation.id: %w", protowire.ParseError(m))
			}

			r.ID = int64(v)
			b = b[m:]
		case 4:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: Relation.info: %w", protowire.ParseError(m))
			}

			info, err := unmarshalInfo(v)
			if err != nil {
				return nil, err
			}

			r.Info = info
			b = b[m:]
		case 2, 3, 8, 9, 10:
			vals, m, ok := consumePackedOrSingleVarint(b, typ)
			if !ok {
				return nil, fmt.Errorf("pb: Relation field %d: bad packed varint", num)
			}

			switch num {
			case 2:
				r.Keys = append(r.Keys, uint32All(vals)...)
			case 3:
				r.Vals = append(r.Vals, uint32All(vals)...)
			case 8:
				r.RolesSID = append(r.RolesSID, int32All(vals)...)
			case 9:
				r.MemIDs = append(r.MemIDs, zigzagAll(vals)...)
			case 10:
				for _, v := range int32All(vals) {
					r.Types = append(r.Types, MemberType(v))
				}
			}

			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return nil, fmt.Errorf("pb: Relation: bad field %d: %w", num, protowire.ParseError(m))
			}

			b = b[m:]
		}
	}

	return r, nil
}

// ChangeSet is the changeset record. The upstream osmformat.proto schema
// defines only field 1 (id); fields 10+ are an extension this module adds
// so a changeset's tags and metadata survive a round trip (see
// DESIGN.md "Changeset support").
type ChangeSet struct {
	ID         int64
	Keys       []uint32
	Vals       []uint32
	UID        int32
	UserSID    uint32
	CreatedAt  int64
	ClosedAt   int64
	Open       bool
	NumChanges int32
}

func (c *ChangeSet) Marshal() []byte {
	var b []byte

	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(c.ID))
	b = appendPackedUvarint(b, 10, c.Keys)
	b = appendPackedUvarint(b, 11, c.Vals)
	b = protowire.AppendTag(b, 12, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(uint32(c.UID)))
	b = protowire.AppendTag(b, 13, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(c.UserSID))
	b = protowire.AppendTag(b, 14, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(c.CreatedAt))
	b = protowire.AppendTag(b, 15, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(c.ClosedAt))

	openVal := uint64(0)
	if c.Open {
		openVal = 1
	}

	b = protowire.AppendTag(b, 16, protowire.VarintType)
	b = protowire.AppendVarint(b, openVal)
	b = protowire.AppendTag(b, 17, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(uint32(c.NumChanges)))

	return b
}

func unmarshalChangeSet(b []byte) (*ChangeSet, error) {
	c := &ChangeSet{}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("pb: ChangeSet: bad tag: %w", protowire.ParseError(n))
		}

		b = b[n:]

		switch num {
		case 10, 11:
			vals, m, ok := consumePackedOrSingleVarint(b, typ)
			if !ok {
				return nil, fmt.Errorf("pb: ChangeSet field %d: bad packed varint", num)
			}

			if num == 10 {
				c.Keys = append(c.Keys, uint32All(vals)...)
			} else {
				c.Vals = append(c.Vals, uint32All(vals)...)
			}

			b = b[m:]
		case 1, 12, 13, 14, 15, 16, 17:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: ChangeSet field %d: %w", num, protowire.ParseError(m))
			}

			switch num {
			case 1:
				c.ID = int64(v)
			case 12:
				c.UID = int32(v)
			case 13:
				c.UserSID = uint32(v)
			case 14:
				c.CreatedAt = int64(v)
			case 15:
				c.ClosedAt = int64(v)
			case 16:
				c.Open = v != 0
			case 17:
				c.NumChanges = int32(v)
			}

			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return nil, fmt.Errorf("pb: ChangeSet: bad field %d: %w", num, protowire.ParseError(m))
			}

			b = b[m:]
		}
	}

	return c, nil
}

// PrimitiveGroup holds exactly one of its five kinds of content.
type PrimitiveGroup struct {
	Nodes      []*Node
	Dense      *DenseNodes
	Ways       []*Way
	Relations  []*Relation
	Changesets []*ChangeSet
}

func (g *PrimitiveGroup) Marshal() []byte {
	var b []byte

	for _, n := range g.Nodes {
		nb := n.Marshal()
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendVarint(b, uint64(len(nb)))
		b = append(b, nb...)
	}

	if g.Dense != nil {
		db := g.Dense.Marshal()
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendVarint(b, uint64(len(db)))
		b = append(b, db...)
	}

	for _, w := range g.Ways {
		wb := w.Marshal()
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendVarint(b, uint64(len(wb)))
		b = append(b, wb...)
	}

	for _, r := range g.Relations {
		rb := r.Marshal()
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendVarint(b, uint64(len(rb)))
		b = append(b, rb...)
	}

	for _, c := range g.Changesets {
		cb := c.Marshal()
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		b = protowire.AppendVarint(b, uint64(len(cb)))
		b = append(b, cb...)
	}

	return b
}

func unmarshalPrimitiveGroup(b []byte) (*PrimitiveGroup, error) {
	g := &PrimitiveGroup{}

	for len(b) > 0 {
		num, _, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("pb: PrimitiveGroup: bad tag: %w", protowire.ParseError(n))
		}

		b = b[n:]

		v, m := protowire.ConsumeBytes(b)
		if m < 0 {
			return nil, fmt.Errorf("pb: PrimitiveGroup field %d: %w", num, protowire.ParseError(m))
		}

		b = b[m:]

		switch num {
		case 1:
			node, err := unmarshalNode(v)
			if err != nil {
				return nil, err
			}

			g.Nodes = append(g.Nodes, node)
		case 2:
			dn, err := unmarshalDenseNodes(v)
			if err != nil {
				return nil, err
			}

			g.Dense = dn
		case 3:
			w, err := unmarshalWay(v)
			if err != nil {
				return nil, err
			}

			g.Ways = append(g.Ways, w)
		case 4:
			r, err := unmarshalRelation(v)
			if err != nil {
				return nil, err
			}

			g.Relations = append(g.Relations, r)
		case 5:
			c, err := unmarshalChangeSet(v)
			if err != nil {
				return nil, err
			}

			g.Changesets = append(g.Changesets, c)
		default:
			// unknown group kind; ignore its bytes, already consumed above.
		}
	}

	return g, nil
}

// PrimitiveBlock is the decoded contents of an "OSMData" blob.
type PrimitiveBlock struct {
	StringTable     *StringTable
	Groups          []*PrimitiveGroup
	Granularity     int32
	LatOffset       int64
	LonOffset       int64
	DateGranularity int32
}

const (
	DefaultGranularity     int32 = 100
	DefaultDateGranularity int32 = 1000
)

func (pbk *PrimitiveBlock) Marshal() []byte {
	var b []byte

	st := pbk.StringTable
	if st == nil {
		st = &StringTable{}
	}

	stb := st.Marshal()
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(len(stb)))
	b = append(b, stb...)

	for _, g := range pbk.Groups {
		gb := g.Marshal()
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendVarint(b, uint64(len(gb)))
		b = append(b, gb...)
	}

	if pbk.Granularity != 0 && pbk.Granularity != DefaultGranularity {
		b = protowire.AppendTag(b, 17, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(uint32(pbk.Granularity)))
	}

	if pbk.LatOffset != 0 {
		b = protowire.AppendTag(b, 19, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(pbk.LatOffset))
	}

	if pbk.LonOffset != 0 {
		b = protowire.AppendTag(b, 20, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(pbk.LonOffset))
	}

	if pbk.DateGranularity != 0 && pbk.DateGranularity != DefaultDateGranularity {
		b = protowire.AppendTag(b, 18, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(uint32(pbk.DateGranularity)))
	}

	return b
}

func UnmarshalPrimitiveBlock(b []byte) (*PrimitiveBlock, error) {
	pbk := &PrimitiveBlock{
		Granularity:     DefaultGranularity,
		DateGranularity: DefaultDateGranularity,
	}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("pb: PrimitiveBlock: bad tag: %w", protowire.ParseError(n))
		}

		b = b[n:]

		switch num {
		case 1:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: PrimitiveBlock.stringtable: %w", protowire.ParseError(m))
			}

			st, err := unmarshalStringTable(v)
			if err != nil {
				return nil, err
			}

			pbk.StringTable = st
			b = b[m:]
		case 2:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: PrimitiveBlock.primitivegroup: %w", protowire.ParseError(m))
			}

			g, err := unmarshalPrimitiveGroup(v)
			if err != nil {
				return nil, err
			}

			pbk.Groups = append(pbk.Groups, g)
			b = b[m:]
		case 17, 18:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: PrimitiveBlock field %d: %w", num, protowire.ParseError(m))
			}

			if num == 17 {
				pbk.Granularity = int32(v)
			} else {
				pbk.DateGranularity = int32(v)
			}

			b = b[m:]
		case 19, 20:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: PrimitiveBlock field %d: %w", num, protowire.ParseError(m))
			}

			signed := protowire.DecodeZigZag(v)
			if num == 19 {
				pbk.LatOffset = signed
			} else {
				pbk.LonOffset = signed
			}

			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return nil, fmt.Errorf("pb: PrimitiveBlock: bad field %d: %w", num, protowire.ParseError(m))
			}

			b = b[m:]
		}
	}

	return pbk, nil
}
