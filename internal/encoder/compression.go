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

package encoder

import "errors"

// ErrUnsupportedCompression is returned for any BlobCompression the
// package has no packer for, including LZMA (see BlobCompression doc).
var ErrUnsupportedCompression = errors.New("encoder: unsupported blob compression")

// BlobCompression selects the algorithm used to compress blob payloads
// written by Pack. LZMA is deliberately absent here: the decoder side only
// uses ulikunitz/xz/lzma to recognise LZMA blobs other tools produced and
// report them as unsupported, never to write them, so there is no packer
// for it.
type BlobCompression int

const (
	RAW BlobCompression = iota
	ZLIB
	LZ4
	ZSTD
)

func (c BlobCompression) String() string {
	switch c {
	case RAW:
		return "raw"
	case ZLIB:
		return "zlib"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return "unknown"
	}
}
