// Package gzipcontainer implements the RFC 1952 gzip envelope around a
// single DEFLATE stream: header and optional-field parsing, locating the
// wrapped DEFLATE stream, and trailer CRC-32/ISIZE verification. Grounded
// on lib_inflate.c's lib_inflate_gzip_uncompress and
// lib_inflate_gzip_size; the magic-byte recognition shape is also grounded
// on the teacher's gzip case in its own format-sniffing switch.
package gzipcontainer

import (
	"encoding/binary"

	"github.com/coredeflate/tinflate/internal/deflate"
	"github.com/coredeflate/tinflate/internal/status"
)

const (
	magic0 = 0x1F
	magic1 = 0x8B
	cmDeflate = 8

	flagText    = 1 << 0
	flagHCRC    = 1 << 1
	flagExtra   = 1 << 2
	flagName    = 1 << 3
	flagComment = 1 << 4
)

// headerSize is the fixed portion of the gzip header: magic (2) + CM (1) +
// FLG (1) + MTIME (4) + XFL (1) + OS (1).
const headerSize = 10

// trailerSize is CRC32 (4) + ISIZE (4).
const trailerSize = 8

// Inflate decompresses a complete gzip member: it parses the header,
// skips any optional fields, decodes the wrapped DEFLATE stream into dst,
// and verifies the trailer's CRC-32 and ISIZE against what was produced.
func Inflate(src, dst []byte) (int, error) {
	pos, err := parseHeader(src)
	if err != nil {
		return 0, err
	}

	body := src[pos:]
	engine := deflate.New(body, dst)
	n, err := engine.Inflate()
	if err != nil {
		return 0, err
	}

	trailerStart := pos + engine.Consumed()
	if trailerStart+trailerSize > len(src) {
		return 0, status.Data("truncated gzip trailer")
	}
	wantCRC := binary.LittleEndian.Uint32(src[trailerStart : trailerStart+4])
	wantISize := binary.LittleEndian.Uint32(src[trailerStart+4 : trailerStart+8])

	if got := crc32(dst[:n]); got != wantCRC {
		return 0, status.CRC("gzip CRC-32 mismatch: decoded data hashes to %#08x, trailer says %#08x", got, wantCRC)
	}
	if uint32(n) != wantISize {
		return 0, status.Data("gzip ISIZE mismatch: decoded %d bytes, trailer says %d", n, wantISize)
	}
	return n, nil
}

// ISize reads the trailing ISIZE field (the uncompressed size modulo
// 2^32) directly, without running the DEFLATE decoder, after validating
// that src at least looks like a gzip member.
func ISize(src []byte) (uint32, error) {
	if len(src) < headerSize+trailerSize {
		return 0, status.Data("gzip stream too short to contain a trailer")
	}
	if src[0] != magic0 || src[1] != magic1 {
		return 0, status.Data("bad gzip magic bytes %#02x %#02x", src[0], src[1])
	}
	return binary.LittleEndian.Uint32(src[len(src)-4:]), nil
}

// parseHeader validates the fixed header and skips every optional field
// present in FLG (FEXTRA, FNAME, FCOMMENT, FHCRC, in that required order),
// returning the offset where the wrapped DEFLATE stream begins.
func parseHeader(src []byte) (int, error) {
	if len(src) < headerSize {
		return 0, status.Data("gzip header truncated")
	}
	if src[0] != magic0 || src[1] != magic1 {
		return 0, status.Data("bad gzip magic bytes %#02x %#02x", src[0], src[1])
	}
	if src[2] != cmDeflate {
		return 0, status.Data("unsupported gzip compression method %d", src[2])
	}
	flg := src[3]
	pos := headerSize

	if flg&flagExtra != 0 {
		if pos+2 > len(src) {
			return 0, status.Data("truncated FEXTRA length field")
		}
		xlen := int(binary.LittleEndian.Uint16(src[pos : pos+2]))
		pos += 2
		if pos+xlen > len(src) {
			return 0, status.Data("truncated FEXTRA field")
		}
		pos += xlen
	}
	if flg&flagName != 0 {
		end, err := skipCString(src, pos)
		if err != nil {
			return 0, err
		}
		pos = end
	}
	if flg&flagComment != 0 {
		end, err := skipCString(src, pos)
		if err != nil {
			return 0, err
		}
		pos = end
	}
	if flg&flagHCRC != 0 {
		if pos+2 > len(src) {
			return 0, status.Data("truncated FHCRC field")
		}
		want := binary.LittleEndian.Uint16(src[pos : pos+2])
		got := uint16(crc32(src[:pos]))
		if got != want {
			return 0, status.CRC("gzip header CRC-16 mismatch")
		}
		pos += 2
	}
	return pos, nil
}

// skipCString returns the index just past the first NUL byte at or after
// pos, the layout FNAME and FCOMMENT both use.
func skipCString(src []byte, pos int) (int, error) {
	for i := pos; i < len(src); i++ {
		if src[i] == 0 {
			return i + 1, nil
		}
	}
	return 0, status.Data("truncated NUL-terminated gzip field")
}
