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

// Package core holds the small pieces of machinery that both the decoder
// and encoder need but that aren't themselves part of the public API:
// pooled scratch buffers for the blob-decompression hot path.
package core

import (
	"bytes"
	"io"
	"sync"
)

// defaultBufferSize matches the blob size PBF data is usually delivered in;
// it avoids a resize on the common path without committing much memory per
// pooled buffer.
const defaultBufferSize = 1024 * 1024

var bufferPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, defaultBufferSize))
	},
}

// PooledBuffer is a *bytes.Buffer borrowed from a shared pool. Every blob
// decoder worker keeps exactly one for the lifetime of its goroutine,
// Reset-ing it between blobs instead of allocating fresh scratch space, and
// returns it to the pool via Close when the worker exits.
type PooledBuffer struct {
	buf *bytes.Buffer
}

// NewPooledBuffer borrows a buffer from the pool.
func NewPooledBuffer() *PooledBuffer {
	return &PooledBuffer{buf: bufferPool.Get().(*bytes.Buffer)}
}

// Reset empties the buffer, keeping its underlying array.
func (p *PooledBuffer) Reset() { p.buf.Reset() }

// Grow ensures the buffer has room for at least n more bytes without
// reallocating.
func (p *PooledBuffer) Grow(n int) { p.buf.Grow(n) }

// Write implements io.Writer.
func (p *PooledBuffer) Write(b []byte) (int, error) { return p.buf.Write(b) }

// ReadFrom implements io.ReaderFrom, used to drain a decompressor directly
// into the pooled buffer.
func (p *PooledBuffer) ReadFrom(r io.Reader) (int64, error) { return p.buf.ReadFrom(r) }

// Bytes returns the valid, unread portion of the buffer. The slice is only
// valid until the next Reset or Close.
func (p *PooledBuffer) Bytes() []byte { return p.buf.Bytes() }

// Len returns the number of bytes currently buffered.
func (p *PooledBuffer) Len() int { return p.buf.Len() }

// Cap returns the buffer's current capacity.
func (p *PooledBuffer) Cap() int { return p.buf.Cap() }

// Close returns the buffer to the pool. It must not be used afterwards.
func (p *PooledBuffer) Close() error {
	if p.buf == nil {
		return nil
	}

	buf := p.buf
	p.buf = nil
	buf.Reset()
	bufferPool.Put(buf)

	return nil
}
