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
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/halvorn/osmpbf/arena"
	"github.com/halvorn/osmpbf/internal/core"
	"github.com/halvorn/osmpbf/internal/pb"
	"github.com/halvorn/osmpbf/internal/queue"
	"github.com/halvorn/osmpbf/model"
)

// Back-pressure thresholds: the framing goroutine pauses submitting new
// work when the pending-work channel is full (naturally, since sending
// blocks) or when the reorder queue holds more decoded-but-unconsumed
// buffers than reorderQueueBase+reorderQueueFactor*numWorkers, bounding
// total resident memory to O(numWorkers * max blob size).
const (
	workQueueFactor    = 4
	reorderQueueBase   = 10
	reorderQueueFactor = 10
	backPressureSleep  = 10 * time.Millisecond
)

type workItem struct {
	seq  uint64
	blob *pb.Blob
}

type decodeResult struct {
	buf *arena.Buffer
	err error
}

// Pipeline drives the bounded producer/consumer read path described in
// spec.md §4.3/§4.6: one framing goroutine reads and frames blobs off the
// source, numWorkers goroutines decode them concurrently, and a
// SortedQueue restores file order for the consumer.
type Pipeline struct {
	reorder    *queue.SortedQueue[decodeResult]
	cancel     context.CancelFunc
	numWorkers int
}

// NewPipeline starts the framing and worker goroutines. numWorkers <= 0
// degenerates to a synchronous pipeline where the framing goroutine also
// decodes, matching spec.md's N=0 case exactly.
func NewPipeline(ctx context.Context, reader io.Reader, readTypes model.ReadTypes, numWorkers int) *Pipeline {
	ctx, cancel := context.WithCancel(ctx)

	p := &Pipeline{
		reorder:    queue.New[decodeResult](),
		cancel:     cancel,
		numWorkers: numWorkers,
	}

	if numWorkers <= 0 {
		go p.runSynchronous(ctx, reader, readTypes)

		return p
	}

	workCh := make(chan workItem, workQueueFactor*numWorkers)

	var wg sync.WaitGroup

	wg.Add(numWorkers)

	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()

			p.worker(ctx, workCh, readTypes)
		}()
	}

	go func() {
		p.frame(ctx, reader, workCh)
		close(workCh)
		wg.Wait()
	}()

	return p
}

// NextBuffer returns the next Buffer in file order, blocking until it's
// available or ctx is done. A wrapped io.EOF signals a clean end of
// stream; any other error means the stream is no longer usable and the
// caller should Close the Pipeline.
func (p *Pipeline) NextBuffer(ctx context.Context) (*arena.Buffer, error) {
	res, err := p.reorder.WaitAndPop(ctx)
	if err != nil {
		return nil, err
	}

	if res.err != nil {
		return nil, res.err
	}

	return res.buf, nil
}

// Close stops the framing and worker goroutines. It never returns an
// error; spec.md requires a destructor that cannot throw.
func (p *Pipeline) Close() error {
	p.cancel()

	return nil
}

func (p *Pipeline) frame(ctx context.Context, reader io.Reader, workCh chan<- workItem) {
	var seq uint64

	for {
		if ctx.Err() != nil {
			return
		}

		if !p.awaitReorderCapacity(ctx) {
			return
		}

		blob, err := readBlob(reader, "OSMData")
		if err != nil {
			p.pushTerminal(seq, err)

			return
		}

		select {
		case workCh <- workItem{seq: seq, blob: blob}:
		case <-ctx.Done():
			return
		}

		seq++
	}
}

func (p *Pipeline) awaitReorderCapacity(ctx context.Context) bool {
	limit := reorderQueueBase + reorderQueueFactor*p.numWorkers

	for p.reorder.Size() > limit {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backPressureSleep):
		}
	}

	return true
}

func (p *Pipeline) pushTerminal(seq uint64, err error) {
	if errors.Is(err, io.EOF) {
		p.reorder.Push(decodeResult{err: io.EOF}, seq)

		return
	}

	p.reorder.Push(decodeResult{err: err}, seq)
}

func (p *Pipeline) worker(ctx context.Context, workCh <-chan workItem, readTypes model.ReadTypes) {
	buf := core.NewPooledBuffer()
	defer buf.Close()

	for item := range workCh {
		if ctx.Err() != nil {
			return
		}

		buf.Reset()

		ab, err := decodeOne(buf, item.blob, readTypes)
		if err != nil {
			slog.Error("pbf: worker decode failed", "error", err)
		}

		p.reorder.Push(decodeResult{buf: ab, err: err}, item.seq)
	}
}

func (p *Pipeline) runSynchronous(ctx context.Context, reader io.Reader, readTypes model.ReadTypes) {
	buf := core.NewPooledBuffer()
	defer buf.Close()

	var seq uint64

	for {
		if ctx.Err() != nil {
			return
		}

		blob, err := readBlob(reader, "OSMData")
		if err != nil {
			p.pushTerminal(seq, err)

			return
		}

		buf.Reset()

		ab, decodeErr := decodeOne(buf, blob, readTypes)
		p.reorder.Push(decodeResult{buf: ab, err: decodeErr}, seq)
		seq++

		if decodeErr != nil {
			return
		}
	}
}

func decodeOne(buf *core.PooledBuffer, blob *pb.Blob, readTypes model.ReadTypes) (*arena.Buffer, error) {
	unpacked, err := unpack(buf, blob)
	if err != nil {
		return nil, err
	}

	entities, err := parsePrimitiveBlock(unpacked, readTypes)
	if err != nil {
		return nil, err
	}

	return BuildBuffer(entities)
}
