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

package pb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// BlobHeader precedes every Blob on the wire.
type BlobHeader struct {
	Type      string
	IndexData []byte
	DataSize  int32
}

func (h *BlobHeader) Marshal() []byte {
	var b []byte

	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, h.Type)

	if len(h.IndexData) > 0 {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, h.IndexData)
	}

	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(uint32(h.DataSize)))

	return b
}

func UnmarshalBlobHeader(b []byte) (*BlobHeader, error) {
	h := &BlobHeader{}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("pb: BlobHeader: bad tag: %w", protowire.ParseError(n))
		}

		b = b[n:]

		switch num {
		case 1:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: BlobHeader.type: %w", protowire.ParseError(m))
			}

			h.Type = v
			b = b[m:]
		case 2:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: BlobHeader.indexdata: %w", protowire.ParseError(m))
			}

			h.IndexData = append([]byte(nil), v...)
			b = b[m:]
		case 3:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: BlobHeader.datasize: %w", protowire.ParseError(m))
			}

			h.DataSize = int32(v)
			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return nil, fmt.Errorf("pb: BlobHeader: bad field %d: %w", num, protowire.ParseError(m))
			}

			b = b[m:]
		}
	}

	if h.Type == "" {
		return nil, fmt.Errorf("pb: BlobHeader: missing required field type")
	}

	return h, nil
}

// BlobCompression selects which oneof field of Blob carries the payload.
type BlobCompression int

const (
	Raw BlobCompression = iota
	Zlib
	Lzma
	Lz4
	Zstd
)

// Blob is the payload that follows a BlobHeader. Exactly one of the
// compressed-data fields (or Raw) is set. RawSize is the length of the
// payload after decompression, used to validate that inflate produced
// exactly the expected number of bytes.
type Blob struct {
	Raw       []byte
	RawSize   int32
	ZlibData  []byte
	LzmaData  []byte
	Lz4Data   []byte // non-standard extension, field 6
	ZstdData  []byte // non-standard extension, field 7
	HasRawLen bool
}

func (blob *Blob) Marshal() []byte {
	var b []byte

	switch {
	case blob.Raw != nil:
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, blob.Raw)
	case blob.ZlibData != nil:
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(uint32(blob.RawSize)))
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, blob.ZlibData)
	case blob.LzmaData != nil:
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(uint32(blob.RawSize)))
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, blob.LzmaData)
	case blob.Lz4Data != nil:
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(uint32(blob.RawSize)))
		b = protowire.AppendTag(b, 6, protowire.BytesType)
		b = protowire.AppendBytes(b, blob.Lz4Data)
	case blob.ZstdData != nil:
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(uint32(blob.RawSize)))
		b = protowire.AppendTag(b, 7, protowire.BytesType)
		b = protowire.AppendBytes(b, blob.ZstdData)
	}

	return b
}

func UnmarshalBlob(b []byte) (*Blob, error) {
	blob := &Blob{}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("pb: Blob: bad tag: %w", protowire.ParseError(n))
		}

		b = b[n:]

		switch num {
		case 1:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: Blob.raw: %w", protowire.ParseError(m))
			}

			blob.Raw = append([]byte(nil), v...)
			b = b[m:]
		case 2:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: Blob.raw_size: %w", protowire.ParseError(m))
			}

			blob.RawSize = int32(v)
			blob.HasRawLen = true
			b = b[m:]
		case 3:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: Blob.zlib_data: %w", protowire.ParseError(m))
			}

			blob.ZlibData = append([]byte(nil), v...)
			b = b[m:]
		case 4:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: Blob.lzma_data: %w", protowire.ParseError(m))
			}

			blob.LzmaData = append([]byte(nil), v...)
			b = b[m:]
		case 6:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: Blob.lz4_data: %w", protowire.ParseError(m))
			}

			blob.Lz4Data = append([]byte(nil), v...)
			b = b[m:]
		case 7:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, fmt.Errorf("pb: Blob.zstd_data: %w", protowire.ParseError(m))
			}

			blob.ZstdData = append([]byte(nil), v...)
			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return nil, fmt.Errorf("pb: Blob: bad field %d: %w", num, protowire.ParseError(m))
			}

			b = b[m:]
		}
	}

	return blob, nil
}
