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
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvorn/osmpbf/internal/encoder"
	"github.com/halvorn/osmpbf/internal/pb"
	"github.com/halvorn/osmpbf/model"
)

// writeDataBlob marshals a single-way PrimitiveBlock and appends it to buf
// as a length-prefixed "OSMData" blob, mirroring writeBlob in
// internal/encoder/blob.go without importing an unexported helper.
func writeDataBlob(t *testing.T, buf *bytes.Buffer, wayID model.ID) {
	t.Helper()

	block, err := encoder.EncodeBatch([]model.Entity{
		&model.Way{ID: wayID, Info: &model.Info{Visible: true}, NodeIDs: []model.ID{1, 2}},
	})
	require.NoError(t, err)

	packed, err := encoder.Pack(block, encoder.ZLIB)
	require.NoError(t, err)

	hdr := &pb.BlobHeader{Type: "OSMData", DataSize: int32(len(packed))}
	hb := hdr.Marshal()

	require.NoError(t, binary.Write(buf, binary.BigEndian, uint32(len(hb))))
	_, err = buf.Write(hb)
	require.NoError(t, err)
	_, err = buf.Write(packed)
	require.NoError(t, err)
}

func readAllWayIDs(t *testing.T, p *Pipeline) []model.ID {
	t.Helper()

	ctx := context.Background()

	var ids []model.ID

	for {
		buf, err := p.NextBuffer(ctx)
		if err != nil {
			require.ErrorIs(t, err, io.EOF)

			break
		}

		for _, it := range buf.Items() {
			w, ok := it.AsWay()
			require.True(t, ok)
			ids = append(ids, w.ToEntity().ID)
		}
	}

	return ids
}

func TestPipelineConcurrentPreservesOrder(t *testing.T) {
	var stream bytes.Buffer
	for i := model.ID(1); i <= 20; i++ {
		writeDataBlob(t, &stream, i)
	}

	p := NewPipeline(context.Background(), &stream, model.ReadAll, 4)
	defer p.Close()

	ids := readAllWayIDs(t, p)

	expected := make([]model.ID, 20)
	for i := range expected {
		expected[i] = model.ID(i + 1)
	}

	assert.Equal(t, expected, ids)
}

func TestPipelineSynchronousDegenerateCase(t *testing.T) {
	var stream bytes.Buffer
	for i := model.ID(1); i <= 5; i++ {
		writeDataBlob(t, &stream, i)
	}

	p := NewPipeline(context.Background(), &stream, model.ReadAll, 0)
	defer p.Close()

	ids := readAllWayIDs(t, p)
	assert.Equal(t, []model.ID{1, 2, 3, 4, 5}, ids)
}

func TestPipelineEmptyStreamYieldsEOF(t *testing.T) {
	p := NewPipeline(context.Background(), &bytes.Buffer{}, model.ReadAll, 2)
	defer p.Close()

	_, err := p.NextBuffer(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestPipelineCorruptStreamReturnsNonEOFError(t *testing.T) {
	// A truncated blob header size prefix can never frame a valid blob.
	stream := bytes.NewBuffer([]byte{0x00, 0x00})

	p := NewPipeline(context.Background(), stream, model.ReadAll, 2)
	defer p.Close()

	_, err := p.NextBuffer(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, io.EOF))
}

func TestPipelineNextBufferRespectsCallerContext(t *testing.T) {
	// A reader that never produces a complete blob keeps the pipeline
	// hanging; NextBuffer must still honor a context deadline.
	pr, pw := io.Pipe()
	defer pw.Close()

	p := NewPipeline(context.Background(), pr, model.ReadAll, 2)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.NextBuffer(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
