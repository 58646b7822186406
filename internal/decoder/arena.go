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

package decoder

import (
	"fmt"

	"github.com/halvorn/osmpbf/arena"
	"github.com/halvorn/osmpbf/model"
)

// bytesPerEntityEstimate sizes a Buffer's initial capacity so the common
// case (a handful of tags per entity) doesn't immediately trigger a
// reallocation.
const bytesPerEntityEstimate = 96

// BuildBuffer materializes a decoded PrimitiveBlock's entities into an
// arena Buffer, the representation NextBuffer hands back to callers.
func BuildBuffer(entities []model.Entity) (*arena.Buffer, error) {
	buf := arena.NewBuffer(len(entities)*bytesPerEntityEstimate, arena.AutoGrow)

	for _, e := range entities {
		if err := appendEntity(buf, e); err != nil {
			return nil, err
		}
	}

	return buf, nil
}

func appendEntity(buf *arena.Buffer, e model.Entity) error {
	switch v := e.(type) {
	case *model.Node:
		return appendNode(buf, v)
	case *model.Way:
		return appendWay(buf, v)
	case *model.Relation:
		return appendRelation(buf, v)
	case *model.Changeset:
		return appendChangeset(buf, v)
	default:
		return fmt.Errorf("arena: unsupported entity type %T", e)
	}
}

func appendNode(buf *arena.Buffer, n *model.Node) error {
	nb, err := arena.NewNodeBuilder(buf, n.ID, n.Info, n.Location)
	if err != nil {
		return fmt.Errorf("arena: node %d: %w", n.ID, err)
	}
	defer nb.Close()

	if err := appendTags(buf, nb.Builder, n.Tags); err != nil {
		return err
	}

	return nb.Close()
}

func appendWay(buf *arena.Buffer, w *model.Way) error {
	wb, err := arena.NewWayBuilder(buf, w.ID, w.Info)
	if err != nil {
		return fmt.Errorf("arena: way %d: %w", w.ID, err)
	}
	defer wb.Close()

	if len(w.NodeIDs) > 0 {
		nl, err := arena.NewWayNodeListBuilder(buf, wb.Builder)
		if err != nil {
			return fmt.Errorf("arena: way %d node list: %w", w.ID, err)
		}
		defer nl.Close()

		for _, id := range w.NodeIDs {
			if err := nl.Add(id, model.UndefinedLocation); err != nil {
				return fmt.Errorf("arena: way %d node ref: %w", w.ID, err)
			}
		}

		if err := nl.Close(); err != nil {
			return err
		}
	}

	if err := appendTags(buf, wb.Builder, w.Tags); err != nil {
		return err
	}

	return wb.Close()
}

func appendRelation(buf *arena.Buffer, r *model.Relation) error {
	rb, err := arena.NewRelationBuilder(buf, r.ID, r.Info)
	if err != nil {
		return fmt.Errorf("arena: relation %d: %w", r.ID, err)
	}
	defer rb.Close()

	if len(r.Members) > 0 {
		ml, err := arena.NewRelationMemberListBuilder(buf, rb.Builder)
		if err != nil {
			return fmt.Errorf("arena: relation %d member list: %w", r.ID, err)
		}
		defer ml.Close()

		for _, m := range r.Members {
			if err := ml.Add(m.ID, m.Type, m.Role); err != nil {
				return fmt.Errorf("arena: relation %d member: %w", r.ID, err)
			}
		}

		if err := ml.Close(); err != nil {
			return err
		}
	}

	if err := appendTags(buf, rb.Builder, r.Tags); err != nil {
		return err
	}

	return rb.Close()
}

func appendChangeset(buf *arena.Buffer, c *model.Changeset) error {
	cb, err := arena.NewChangesetBuilder(buf, *c)
	if err != nil {
		return fmt.Errorf("arena: changeset %d: %w", c.ID, err)
	}

	return cb.Close()
}

func appendTags(buf *arena.Buffer, parent *arena.Builder, tags map[string]string) error {
	if len(tags) == 0 {
		return nil
	}

	tl, err := arena.NewTagListBuilder(buf, parent)
	if err != nil {
		return fmt.Errorf("arena: tag list: %w", err)
	}
	defer tl.Close()

	for k, v := range tags {
		if err := tl.Add(k, v); err != nil {
			return fmt.Errorf("arena: tag %q: %w", k, err)
		}
	}

	return tl.Close()
}
