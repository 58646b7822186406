package encoder

import (
	"testing"

	"github.com/destel/rill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvorn/osmpbf/model"
)

func TestEncodeBatchNodesProducesDenseGroup(t *testing.T) {
	nodes := []model.Entity{
		&model.Node{ID: 1, Info: &model.Info{Visible: true}, Location: model.NewLocation(-0.1, 51.5)},
		&model.Node{ID: 2, Info: &model.Info{Visible: true}, Location: model.NewLocation(-0.2, 51.6)},
	}

	block, err := EncodeBatch(nodes)
	require.NoError(t, err)
	require.Len(t, block.Groups, 1)
	require.NotNil(t, block.Groups[0].Dense)
	assert.Len(t, block.Groups[0].Dense.ID, 2)
	assert.Empty(t, block.Groups[0].Ways)
	assert.Empty(t, block.Groups[0].Relations)
}

func TestEncodeBatchWaysProducesWayGroup(t *testing.T) {
	ways := []model.Entity{
		&model.Way{ID: 1, Info: &model.Info{Visible: true}, NodeIDs: []model.ID{1, 2, 3}},
	}

	block, err := EncodeBatch(ways)
	require.NoError(t, err)
	require.Len(t, block.Groups, 1)
	require.Len(t, block.Groups[0].Ways, 1)
	assert.Equal(t, int64(1), block.Groups[0].Ways[0].ID)
}

func TestEncodeBatchEmptyErrors(t *testing.T) {
	_, err := EncodeBatch(nil)
	assert.Error(t, err)
}

func TestCoalesceSplitsByKind(t *testing.T) {
	in := make(chan []model.Entity, 1)
	in <- []model.Entity{
		&model.Node{ID: 1, Info: &model.Info{Visible: true}},
		&model.Way{ID: 2, Info: &model.Info{Visible: true}},
		&model.Relation{ID: 3, Info: &model.Info{Visible: true}},
		&model.Changeset{ID: 4},
	}
	close(in)

	out := Coalesce(in, 10)

	var nodeBatches, wayBatches, relBatches, changesetBatches int

	for batch := range out {
		require.NoError(t, batch.Error)
		require.NotEmpty(t, batch.Value)

		switch batch.Value[0].(type) {
		case *model.Node:
			nodeBatches++
		case *model.Way:
			wayBatches++
		case *model.Relation:
			relBatches++
		case *model.Changeset:
			changesetBatches++
		}
	}

	assert.Equal(t, 1, nodeBatches)
	assert.Equal(t, 1, wayBatches)
	assert.Equal(t, 1, relBatches)
	assert.Equal(t, 1, changesetBatches)
}

func TestExtractBoundingBoxesExpandsOverDefinedNodes(t *testing.T) {
	in := make(chan rill.Try[[]model.Entity], 1)
	in <- rill.Try[[]model.Entity]{Value: []model.Entity{
		&model.Node{ID: 1, Location: model.NewLocation(-0.1, 51.5)},
		&model.Node{ID: 2, Location: model.NewLocation(0.2, 51.7)},
		&model.Way{ID: 3}, // ignored by bbox extraction
	}}
	close(in)

	entities, bboxes := ExtractBoundingBoxes(in)

	var passthrough []model.Entity
	for e := range entities {
		require.NoError(t, e.Error)
		passthrough = append(passthrough, e.Value...)
	}
	assert.Len(t, passthrough, 3)

	var bbox *model.BoundingBox
	for b := range bboxes {
		require.NoError(t, b.Error)
		bbox = b.Value
	}

	require.NotNil(t, bbox)
	assert.InDelta(t, 51.7, float64(bbox.Top), 1e-9)
	assert.InDelta(t, 51.5, float64(bbox.Bottom), 1e-9)
	assert.InDelta(t, -0.1, float64(bbox.Left), 1e-9)
	assert.InDelta(t, 0.2, float64(bbox.Right), 1e-9)
}
