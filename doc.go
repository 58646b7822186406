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

// Package osmpbf reads and writes OpenStreetMap's PBF (Protocolbuffer
// Binary Format) files: a sequence of length-prefixed, optionally
// compressed fileformat.Blob messages, the first an OSMHeader and the
// rest OSMData blocks holding nodes, ways, relations, and changesets.
//
// A Reader streams blocks off an io.Reader, decoding them with a bounded
// pool of worker goroutines while preserving file order, and hands each
// decoded block back as an arena.Buffer: a flat, allocation-light region
// holding that block's entities. A Writer takes the inverse path,
// batching model.Entity values by kind and streaming them out as blobs.
package osmpbf
