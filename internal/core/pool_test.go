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

package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPooledBufferWriteAndBytes(t *testing.T) {
	buf := NewPooledBuffer()
	defer buf.Close()

	n, err := buf.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte("hello"), buf.Bytes())
	assert.Equal(t, 5, buf.Len())
}

func TestPooledBufferReadFrom(t *testing.T) {
	buf := NewPooledBuffer()
	defer buf.Close()

	n, err := buf.ReadFrom(bytes.NewReader([]byte("osm data")))
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	assert.Equal(t, "osm data", string(buf.Bytes()))
}

func TestPooledBufferResetClearsContent(t *testing.T) {
	buf := NewPooledBuffer()
	defer buf.Close()

	_, err := buf.Write([]byte("stale"))
	require.NoError(t, err)

	buf.Reset()

	assert.Equal(t, 0, buf.Len())
	assert.Empty(t, buf.Bytes())
}

func TestPooledBufferCloseIsIdempotent(t *testing.T) {
	buf := NewPooledBuffer()

	assert.NoError(t, buf.Close())
	assert.NoError(t, buf.Close())
}

func TestPooledBufferRecycledFromPool(t *testing.T) {
	first := NewPooledBuffer()
	_, err := first.Write([]byte("first tenant"))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	// A freshly borrowed buffer must never leak a prior tenant's bytes.
	second := NewPooledBuffer()
	defer second.Close()

	assert.Equal(t, 0, second.Len())
}

func TestPooledBufferGrow(t *testing.T) {
	buf := NewPooledBuffer()
	defer buf.Close()

	buf.Grow(4096)
	assert.GreaterOrEqual(t, buf.Cap(), 4096)
}
