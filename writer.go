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
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/destel/rill"

	"github.com/halvorn/osmpbf/arena"
	"github.com/halvorn/osmpbf/internal/encoder"
	"github.com/halvorn/osmpbf/model"
)

// Writer streams model.Entity values out to an io.Writer as a sequence
// of OSM PBF blobs: one OSMHeader blob written up front, followed by
// OSMData blobs batched by entity kind.
//
// Unlike a pipeline that discovers the bounding box by scanning every
// entity before it can write the header, Writer takes the header from
// the caller up front, so the header blob goes out immediately and
// entity blobs stream directly to sink as they accumulate — no temp
// file, no seek-back.
//
// A Writer is safe for one caller goroutine at a time.
type Writer struct {
	sink io.Writer
	cfg  writerOptions

	mu      sync.Mutex
	pending []model.Entity
	err     error
	closed  bool
}

// NewWriter writes header immediately as the leading OSMHeader blob and
// returns a Writer ready to accept entities for the body.
func NewWriter(sink io.Writer, header *model.Header, opts ...WriterOption) (*Writer, error) {
	cfg := defaultWriterConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if header == nil {
		return nil, &Error{Kind: KindFormat, Op: "NewWriter", Err: errors.New("nil header")}
	}

	if err := encoder.SaveHeader(sink, *header, cfg.compression); err != nil {
		return nil, &Error{Kind: KindIO, Op: "NewWriter", Err: err}
	}

	return &Writer{sink: sink, cfg: cfg}, nil
}

// WriteItem queues a single entity for encoding, flushing automatically
// once the pending batch reaches the configured batch size.
func (w *Writer) WriteItem(e model.Entity) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return &Error{Kind: KindAlreadyFailed, Op: "WriteItem", Err: errors.Join(ErrAlreadyFailed, w.err)}
	}

	if w.closed {
		return &Error{Kind: KindAlreadyFailed, Op: "WriteItem", Err: errors.New("writer closed")}
	}

	w.pending = append(w.pending, e)

	if len(w.pending) >= w.cfg.batchSize {
		return w.flushLocked()
	}

	return nil
}

// Write queues every entity held in buf for encoding, converting each
// arena item back into a model.Entity value.
func (w *Writer) Write(buf *arena.Buffer) error {
	for _, it := range buf.Items() {
		e, err := entityFromItem(it)
		if err != nil {
			return &Error{Kind: KindFormat, Op: "Write", Err: err}
		}

		if err := w.WriteItem(e); err != nil {
			return err
		}
	}

	return nil
}

// Flush encodes and writes every entity queued so far, even if it
// doesn't fill a full batch.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return &Error{Kind: KindAlreadyFailed, Op: "Flush", Err: errors.Join(ErrAlreadyFailed, w.err)}
	}

	return w.flushLocked()
}

// Close flushes any remaining entities and marks the Writer unusable. It
// never returns an error from a second Close; the first fatal error
// encountered is recorded and returned once, and discarded thereafter.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true

	if w.err != nil {
		return nil
	}

	if err := w.flushLocked(); err != nil {
		return err
	}

	return nil
}

// flushLocked runs w.pending through a one-shot Coalesce/EncodeBatch/Pack
// pipeline and writes the resulting blobs to sink. Caller must hold w.mu.
func (w *Writer) flushLocked() error {
	if len(w.pending) == 0 {
		return nil
	}

	batch := w.pending
	w.pending = nil

	in := make(chan []model.Entity, 1)
	in <- batch
	close(in)

	coalesced := encoder.Coalesce(in, w.cfg.batchSize)
	inspected, bboxes := encoder.ExtractBoundingBoxes(coalesced)
	encoded := rill.OrderedMap(inspected, w.cfg.nCPU, encoder.EncodeBatch)
	packed := rill.OrderedMap(encoded, w.cfg.nCPU, encoder.GenerateBatchPacker(w.cfg.compression))
	statuses := encoder.SavePacked(w.sink, packed)

	go drainBoundingBoxes(bboxes)

	for status := range statuses {
		if status.Error != nil {
			w.err = status.Error

			return &Error{Kind: KindIO, Op: "Flush", Err: status.Error}
		}
	}

	return nil
}

// drainBoundingBoxes discards the per-batch bounding boxes ExtractBoundingBoxes
// computes; Writer's header is supplied by the caller up front rather than
// derived by scanning the body, so nothing consumes them.
func drainBoundingBoxes(bboxes <-chan rill.Try[*model.BoundingBox]) {
	for range bboxes {
	}
}

func entityFromItem(it arena.Item) (model.Entity, error) {
	if v, ok := it.AsNode(); ok {
		n := v.ToEntity()

		return &n, nil
	}

	if v, ok := it.AsWay(); ok {
		w := v.ToEntity()

		return &w, nil
	}

	if v, ok := it.AsRelation(); ok {
		r := v.ToEntity()

		return &r, nil
	}

	if v, ok := it.AsChangeset(); ok {
		c := v.ToEntity()

		return &c, nil
	}

	return nil, fmt.Errorf("osmpbf: unrecognized arena item kind %v", it.Kind)
}
