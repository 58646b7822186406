// Copyright 2017-25 the original author or authors.
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
	"encoding/binary"
	"fmt"
	"io"

	"github.com/halvorn/osmpbf/internal/core"
	"github.com/halvorn/osmpbf/internal/pb"
)

// maxBlobHeaderSize and maxBlobSize bound how much a single length prefix
// is trusted to claim, so a corrupt or hostile stream can't make the
// reader allocate unbounded memory before it has a chance to fail.
const (
	maxBlobHeaderSize = 64 * 1024
	maxBlobSize       = 32 * 1024 * 1024
)

// readBlob reads one BlobHeader-prefixed Blob off rdr, verifying the
// header's declared type matches wantType.
func readBlob(rdr io.Reader, wantType string) (*pb.Blob, error) {
	h, err := readBlobHeader(rdr)
	if err != nil {
		return nil, fmt.Errorf("error reading blob header: %w", err)
	}

	if h.Type != wantType {
		return nil, fmt.Errorf("%w: expected BlobHeader type %q, got %q", ErrMalformed, wantType, h.Type)
	}

	b, err := readBlobData(rdr, int64(h.DataSize))
	if err != nil {
		return nil, fmt.Errorf("error reading blob: %w", err)
	}

	return b, nil
}

// readBlobHeader reads the 4-byte big-endian size prefix and the
// BlobHeader message that follows it.
func readBlobHeader(rdr io.Reader) (*pb.BlobHeader, error) {
	var size uint32

	if err := binary.Read(rdr, binary.BigEndian, &size); err != nil {
		return nil, fmt.Errorf("error reading blob header size: %w", err)
	}

	if size > maxBlobHeaderSize {
		return nil, fmt.Errorf("%w: blob header size %d exceeds maximum of %d", ErrMalformed, size, maxBlobHeaderSize)
	}

	buf := core.NewPooledBuffer()
	defer buf.Close()

	n, err := io.CopyN(buf, rdr, int64(size))
	if err != nil {
		return nil, fmt.Errorf("error reading blob header: %w", err)
	}

	if n != int64(size) {
		return nil, fmt.Errorf("error reading blob header: expected %d bytes, got %d", size, n)
	}

	header, err := pb.UnmarshalBlobHeader(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: error unmarshalling blob header: %v", ErrMalformed, err)
	}

	return header, nil
}

// readBlobData reads a Blob message of exactly size bytes.
func readBlobData(rdr io.Reader, size int64) (*pb.Blob, error) {
	if size > maxBlobSize {
		return nil, fmt.Errorf("%w: blob size %d exceeds maximum of %d", ErrMalformed, size, maxBlobSize)
	}

	buf := core.NewPooledBuffer()
	defer buf.Close()

	n, err := io.CopyN(buf, rdr, size)
	if err != nil {
		return nil, fmt.Errorf("error reading blob: %w", err)
	}

	if n != size {
		return nil, fmt.Errorf("error reading blob: expected %d bytes, got %d", size, n)
	}

	blob, err := pb.UnmarshalBlob(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: error unmarshalling blob: %v", ErrMalformed, err)
	}

	return blob, nil
}
