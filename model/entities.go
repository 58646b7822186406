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

// Package model contains the shared model for OpenStreetMap PBF encoders/decoders.
package model

import (
	"time"
)

// UID is the primary key for a user.
type UID int32

// ID is the primary key of an entity.
type ID int64

// Info represents information common to Node, Way, Relation, and Changeset
// entities.
type Info struct {
	Version   int32
	UID       UID
	Timestamp time.Time
	Changeset int64
	User      string
	Visible   bool
}

// Entity is implemented by every OSM entity kind the library can decode or
// encode: Node, Way, Relation, Changeset.
type Entity interface {
	isEntity() // prevents extensions

	GetID() ID

	GetTags() map[string]string

	GetInfo() *Info
}

// Node represents a specific point on the earth's surface defined by its
// latitude and longitude. Each node comprises at least an id number and a
// pair of coordinates. An invisible node (Info.Visible == false) carries an
// undefined Location.
type Node struct {
	ID       ID
	Tags     map[string]string
	Info     *Info
	Location Location
}

var _ Entity = Node{}

func (n Node) isEntity() {}

func (n Node) GetID() ID { return n.ID }

func (n Node) GetTags() map[string]string { return n.Tags }

func (n Node) GetInfo() *Info { return n.Info }

// Way is an ordered list of between 2 and 2,000 nodes that define a polyline.
type Way struct {
	ID      ID
	Tags    map[string]string
	Info    *Info
	NodeIDs []ID
}

var _ Entity = Way{}

func (w Way) isEntity() {}

func (w Way) GetID() ID { return w.ID }

func (w Way) GetTags() map[string]string { return w.Tags }

func (w Way) GetInfo() *Info { return w.Info }

// EntityType is an enumeration of PBF entity/member types. It also serves
// as the arena's closed-variant discriminant for the top-level entity
// kinds, Area included for completeness even though area-assembly itself
// is out of scope.
type EntityType int32

const (
	// NODE denotes that the member is a node.
	NODE EntityType = iota

	// WAY denotes that the member is a way.
	WAY

	// RELATION denotes that the member is a relation.
	RELATION

	// CHANGESET denotes a changeset entity. Changesets never appear as
	// relation members on the wire, but share the discriminant space used
	// by the arena.
	CHANGESET

	// AREA denotes an assembled area. Area assembly itself is out of
	// scope; the discriminant exists so the arena's kind tag space lines
	// up with libosmium's, in case a caller builds one directly.
	AREA
)

func (t EntityType) String() string {
	switch t {
	case NODE:
		return "node"
	case WAY:
		return "way"
	case RELATION:
		return "relation"
	case CHANGESET:
		return "changeset"
	case AREA:
		return "area"
	default:
		return "unknown"
	}
}

// Member represents one element of a Relation's ordered member list.
type Member struct {
	ID   ID
	Type EntityType
	Role string
}

// Relation is a multipurpose data structure that documents a relationship
// between two or more data entities (nodes, ways, and/or other relations).
type Relation struct {
	ID      ID
	Tags    map[string]string
	Info    *Info
	Members []Member
}

var _ Entity = Relation{}

func (r Relation) isEntity() {}

func (r Relation) GetID() ID { return r.ID }

func (r Relation) GetTags() map[string]string { return r.Tags }

func (r Relation) GetInfo() *Info { return r.Info }

// Changeset is a changeset entity: the common OSMObject header (id, uid,
// user, timestamp-as-CreatedAt) plus the fields unique to changesets.
// Supplements spec.md's closed entity-kind set using the ChangesetBuilder
// libosmium carries; not exercised by the narrow seed scenarios but not
// excluded by any Non-goal either.
type Changeset struct {
	ID          ID
	Tags        map[string]string
	Info        *Info
	ClosedAt    time.Time
	Open        bool
	NumChanges  int32
	CommentsAll int32
}

var _ Entity = Changeset{}

func (c Changeset) isEntity() {}

func (c Changeset) GetID() ID { return c.ID }

func (c Changeset) GetTags() map[string]string { return c.Tags }

func (c Changeset) GetInfo() *Info { return c.Info }
