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
	"runtime"

	"github.com/halvorn/osmpbf/internal/encoder"
)

const (
	// DefaultWorkers is the default decode/encode worker count (spec §5's
	// N=2). Pass 0 to WithWorkers for the fully synchronous pipeline.
	DefaultWorkers = 2

	// DefaultBatchSize is the default number of same-kind entities
	// batched into one PrimitiveBlock.
	DefaultBatchSize = encoder.EntityLimit

	// DefaultCompression is the default blob compression a Writer uses.
	DefaultCompression = encoder.ZLIB
)

// DefaultNCpu returns a worker count derived from the host's CPU count,
// leaving one CPU free for the caller's own goroutine.
func DefaultNCpu() uint16 {
	cpus := uint16(runtime.GOMAXPROCS(-1))

	return max(cpus-1, 1)
}

// readerOptions provides optional configuration for NewReader.
type readerOptions struct {
	numWorkers int
}

// ReaderOption configures how a Reader decodes its stream.
type ReaderOption func(*readerOptions)

// WithWorkers sets the number of decode-worker goroutines. 0 degenerates
// to a synchronous pipeline.
func WithWorkers(n int) ReaderOption {
	return func(o *readerOptions) {
		o.numWorkers = n
	}
}

var defaultReaderConfig = readerOptions{
	numWorkers: DefaultWorkers,
}

// writerOptions provides optional configuration for NewWriter.
type writerOptions struct {
	compression encoder.BlobCompression
	nCPU        int
	batchSize   int
}

// WriterOption configures how a Writer encodes its stream.
type WriterOption func(*writerOptions)

// WithCompression sets the blob compression scheme. The default is ZLIB.
func WithCompression(c encoder.BlobCompression) WriterOption {
	return func(o *writerOptions) {
		o.compression = c
	}
}

// WithEncodeWorkers sets the concurrency of the batch-encode stage.
func WithEncodeWorkers(n int) WriterOption {
	return func(o *writerOptions) {
		o.nCPU = n
	}
}

// WithBatchSize sets the max number of same-kind entities placed in one
// PrimitiveBlock before it's flushed as a blob.
func WithBatchSize(n int) WriterOption {
	return func(o *writerOptions) {
		o.batchSize = n
	}
}

var defaultWriterConfig = writerOptions{
	compression: DefaultCompression,
	nCPU:        DefaultWorkers,
	batchSize:   DefaultBatchSize,
}
