// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package tracearchive reads and writes .gta trace archive files:
// collected trace entries serialized as CBOR and compressed for
// offline analysis.
//
// The format is a fixed header followed by one compressed payload:
//
//	bytes 0-3   magic "GTA1"
//	byte  4     compression tag (none/lz4/zstd)
//	bytes 5-12  uncompressed payload size, big-endian uint64
//	bytes 13-   payload: CBOR array of records
//
// The uncompressed size is verified on read; a mismatch means the
// file is corrupt.
package tracearchive

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/gantry-dev/gantry/trace"
)

var magic = [4]byte{'G', 'T', 'A', '1'}

// CompressionTag identifies the payload compression algorithm. The
// values are format constants; changing them breaks existing
// archives.
type CompressionTag uint8

const (
	// CompressionNone stores the CBOR payload uncompressed. Also the
	// automatic fallback when LZ4 cannot shrink the payload.
	CompressionNone CompressionTag = 0

	// CompressionLZ4 uses LZ4 block compression: fast, moderate
	// ratio. The default for interactive exports.
	CompressionLZ4 CompressionTag = 1

	// CompressionZstd uses zstd at its default level: better ratio
	// for large text-heavy captures.
	CompressionZstd CompressionTag = 2
)

// String returns the tag's flag-value spelling.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(tag))
	}
}

// ParseCompressionTag parses a --compress flag value.
func ParseCompressionTag(name string) (CompressionTag, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q (want none, lz4, or zstd)", name)
	}
}

// Write serializes entries into w using the given compression.
func Write(w io.Writer, entries []trace.Entry, tag CompressionTag) error {
	payload, err := cbor.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding trace records: %w", err)
	}

	compressed, effectiveTag, err := compress(payload, tag)
	if err != nil {
		return err
	}

	header := make([]byte, 13)
	copy(header, magic[:])
	header[4] = byte(effectiveTag)
	binary.BigEndian.PutUint64(header[5:], uint64(len(payload)))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("writing archive header: %w", err)
	}
	if _, err := w.Write(compressed); err != nil {
		return fmt.Errorf("writing archive payload: %w", err)
	}
	return nil
}

// Read parses an archive and returns its entries and the compression
// it was written with.
func Read(r io.Reader) ([]trace.Entry, CompressionTag, error) {
	header := make([]byte, 13)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, 0, fmt.Errorf("reading archive header: %w", err)
	}
	if [4]byte(header[:4]) != magic {
		return nil, 0, fmt.Errorf("not a trace archive (bad magic %q)", header[:4])
	}
	tag := CompressionTag(header[4])
	uncompressedSize := binary.BigEndian.Uint64(header[5:])

	compressed, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("reading archive payload: %w", err)
	}

	payload, err := decompress(compressed, tag, int(uncompressedSize))
	if err != nil {
		return nil, 0, err
	}

	var entries []trace.Entry
	if err := cbor.Unmarshal(payload, &entries); err != nil {
		return nil, 0, fmt.Errorf("decoding trace records: %w", err)
	}
	return entries, tag, nil
}

// compress applies tag to payload. LZ4 falls back to CompressionNone
// when the block API reports the data incompressible.
func compress(payload []byte, tag CompressionTag) ([]byte, CompressionTag, error) {
	switch tag {
	case CompressionNone:
		return payload, tag, nil

	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(payload))
		dst := make([]byte, bound)
		n, err := lz4.CompressBlock(payload, dst, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("lz4 compression: %w", err)
		}
		if n == 0 {
			return payload, CompressionNone, nil
		}
		return dst[:n], tag, nil

	case CompressionZstd:
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, 0, fmt.Errorf("zstd encoder: %w", err)
		}
		defer encoder.Close()
		return encoder.EncodeAll(payload, nil), tag, nil

	default:
		return nil, 0, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

func decompress(compressed []byte, tag CompressionTag, uncompressedSize int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(compressed) != uncompressedSize {
			return nil, fmt.Errorf("uncompressed payload is %d bytes, header says %d",
				len(compressed), uncompressedSize)
		}
		return compressed, nil

	case CompressionLZ4:
		payload := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(compressed, payload)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompression: %w", err)
		}
		if n != uncompressedSize {
			return nil, fmt.Errorf("lz4 payload expanded to %d bytes, header says %d", n, uncompressedSize)
		}
		return payload, nil

	case CompressionZstd:
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		defer decoder.Close()
		payload, err := decoder.DecodeAll(compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompression: %w", err)
		}
		if len(payload) != uncompressedSize {
			return nil, fmt.Errorf("zstd payload expanded to %d bytes, header says %d", len(payload), uncompressedSize)
		}
		return payload, nil

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}
