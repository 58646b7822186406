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

package osmpbf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/halvorn/osmpbf/arena"
	"github.com/halvorn/osmpbf/internal/decoder"
	"github.com/halvorn/osmpbf/model"
)

// Reader streams entities out of an OSM PBF source, one decoded block at
// a time, in file order.
//
// A Reader is safe for one NextBuffer caller and one concurrent Close
// caller; it is not safe to call NextBuffer from multiple goroutines at
// once.
type Reader struct {
	header   model.Header
	pipeline *decoder.Pipeline
	cancel   context.CancelFunc

	mu  sync.Mutex
	err error
}

// NewReader reads the leading OSMHeader blob off source and starts the
// decode pipeline for the rest of the stream. readTypes restricts which
// entity kinds are materialized; groups of an unrequested kind are
// skipped without being decoded into a Buffer.
func NewReader(source io.Reader, readTypes model.ReadTypes, opts ...ReaderOption) (*Reader, error) {
	cfg := defaultReaderConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	header, err := decoder.LoadHeader(source)
	if err != nil {
		return nil, wrapErr("NewReader", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Reader{
		header:   header,
		pipeline: decoder.NewPipeline(ctx, source, readTypes, cfg.numWorkers),
		cancel:   cancel,
	}, nil
}

// Header returns the file's header block.
func (r *Reader) Header() *model.Header {
	h := r.header

	return &h
}

// NextBuffer returns the next decoded block in file order, blocking
// until it's available or ctx is done. It returns an error wrapping
// io.EOF once the stream is exhausted; any other error means the Reader
// is no longer usable and the caller should Close it.
func (r *Reader) NextBuffer(ctx context.Context) (*arena.Buffer, error) {
	r.mu.Lock()
	if r.err != nil {
		err := r.err
		r.mu.Unlock()

		return nil, &Error{Kind: KindAlreadyFailed, Op: "NextBuffer", Err: errors.Join(ErrAlreadyFailed, err)}
	}
	r.mu.Unlock()

	buf, err := r.pipeline.NextBuffer(ctx)
	if err == nil {
		return buf, nil
	}

	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("osmpbf: NextBuffer: %w", io.EOF)
	}

	r.mu.Lock()
	r.err = err
	r.mu.Unlock()

	return nil, wrapErr("NextBuffer", err)
}

// Close stops the decode pipeline. It never returns an error; a second
// Close is a no-op.
func (r *Reader) Close() error {
	r.cancel()

	return nil
}
