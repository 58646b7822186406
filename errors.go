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

	"github.com/halvorn/osmpbf/arena"
	"github.com/halvorn/osmpbf/internal/decoder"
)

// Kind classifies what went wrong, independent of the operation that
// surfaced it.
type Kind int

const (
	// KindIO covers failures reading from or writing to the underlying
	// stream.
	KindIO Kind = iota
	// KindFormat covers malformed blobs, headers, or protobuf payloads.
	KindFormat
	// KindUnsupported covers well-formed input this library deliberately
	// doesn't handle, such as an LZMA-compressed blob.
	KindUnsupported
	// KindBufferFull covers a Fixed-policy arena.Buffer that ran out of
	// room.
	KindBufferFull
	// KindAlreadyFailed covers a call made against a Reader or Writer
	// that has already recorded a fatal error.
	KindAlreadyFailed
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindFormat:
		return "format"
	case KindUnsupported:
		return "unsupported"
	case KindBufferFull:
		return "buffer full"
	case KindAlreadyFailed:
		return "already failed"
	default:
		return "unknown"
	}
}

// Error is the error type returned by Reader and Writer operations. Op
// names the method that failed (e.g. "NewReader", "NextBuffer", "Write").
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("osmpbf: %s: %s", e.Op, e.Kind)
	}

	return fmt.Sprintf("osmpbf: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrAlreadyFailed is wrapped by an Error of KindAlreadyFailed: the
// Reader or Writer already recorded a fatal error and every subsequent
// call short-circuits to it instead of touching the stream again.
var ErrAlreadyFailed = errors.New("osmpbf: stream already failed")

// ErrBufferFull is wrapped by an Error of KindBufferFull, mirroring
// arena.ErrBufferFull for callers who only import the root package.
var ErrBufferFull = arena.ErrBufferFull

// wrapErr classifies err and attaches op, unless err is already an
// *Error (in which case it's returned unchanged) or nil.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return err
	}

	kind := KindIO

	switch {
	case errors.Is(err, ErrAlreadyFailed):
		kind = KindAlreadyFailed
	case errors.Is(err, arena.ErrBufferFull):
		kind = KindBufferFull
	case errors.Is(err, decoder.ErrUnsupportedLZMA):
		kind = KindUnsupported
	case errors.Is(err, decoder.ErrMalformed):
		kind = KindFormat
	}

	return &Error{Kind: kind, Op: op, Err: err}
}
