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
	"compress/zlib"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"
	"github.com/ulikunitz/xz/lzma"

	"github.com/halvorn/osmpbf/internal/core"
	"github.com/halvorn/osmpbf/internal/pb"
)

var (
	// ErrMalformed wraps any error that means the bytes themselves don't
	// conform to the PBF wire format: a bad frame size, a byte count
	// mismatch after a length-prefixed read, or a failed protobuf parse.
	ErrMalformed = errors.New("decoder: malformed pbf data")

	ErrUnknownCompressionType = fmt.Errorf("%w: unknown blob compression type", ErrMalformed)

	// ErrUnsupportedLZMA is reported for any blob carrying lzma_data.
	// Per the format's own limitation, this module never decodes LZMA
	// payloads; the encoder never writes one.
	ErrUnsupportedLZMA = errors.New("decoder: lzma-compressed blobs are not supported")
)

// unpack uncompresses the blob.
//
// This method is not "buried" within the readBlob function so that decompression
// of blobs can be performed concurrently.
func unpack(buf *core.PooledBuffer, blob *pb.Blob) ([]byte, error) {
	var factory func(blob *pb.Blob) (io.Reader, error)

	switch {
	case blob.Raw != nil:
		return blob.Raw, nil
	case blob.ZlibData != nil:
		factory = func(b *pb.Blob) (io.Reader, error) {
			return zlib.NewReader(bytes.NewReader(b.ZlibData))
		}
	case blob.LzmaData != nil:
		// Parsing the header (properties byte, dictionary size, uncompressed
		// size) confirms this really is an LZMA stream rather than garbage
		// sitting in the wrong oneof field; the body is never decoded.
		if _, err := lzma.NewReader(bytes.NewReader(blob.LzmaData)); err != nil {
			return nil, fmt.Errorf("%w: invalid lzma header", ErrMalformed)
		}

		return nil, ErrUnsupportedLZMA
	case blob.Lz4Data != nil:
		factory = func(b *pb.Blob) (io.Reader, error) {
			return lz4.NewReader(bytes.NewReader(b.Lz4Data)), nil
		}
	case blob.ZstdData != nil:
		factory = func(b *pb.Blob) (io.Reader, error) {
			return zstd.NewReader(bytes.NewReader(b.ZstdData))
		}
	default:
		return nil, ErrUnknownCompressionType
	}

	if blob.RawSize > maxBlobSize {
		return nil, fmt.Errorf("%w: raw blob size %d exceeds maximum of %d", ErrMalformed, blob.RawSize, maxBlobSize)
	}

	rawBufferSize := int(blob.RawSize) + bytes.MinRead
	if rawBufferSize > buf.Cap() {
		buf.Grow(rawBufferSize)
	}

	rdr, err := factory(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: unpacker factory error: %v", ErrMalformed, err)
	}

	n, err := buf.ReadFrom(rdr)
	if err != nil {
		return nil, fmt.Errorf("%w: unpacker read error: %v", ErrMalformed, err)
	}

	if n != int64(blob.RawSize) {
		return nil, fmt.Errorf("%w: raw blob data size %d but expected %d", ErrMalformed, buf.Len(), blob.RawSize)
	}

	return buf.Bytes(), nil
}
