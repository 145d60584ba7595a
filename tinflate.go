// Package tinflate decompresses DEFLATE (RFC 1951) and gzip (RFC 1952)
// data into a caller-supplied destination buffer. It performs no I/O and
// retries nothing: every failure is reported once, as a typed *Error.
// Decoded bytes go only into dst; the decoder's working state (Huffman
// tables, the dynamic-block code-length vector) is allocated on each call.
package tinflate

import (
	"github.com/coredeflate/tinflate/internal/deflate"
	"github.com/coredeflate/tinflate/internal/gzipcontainer"
	"github.com/coredeflate/tinflate/internal/status"
)

// Status categorizes why a decode failed. See status.Status for the full
// set of values, re-exported here as the package's public vocabulary.
type Status = status.Status

const (
	StatusDataError = status.DataError
	StatusBufError  = status.BufError
	StatusCRCError  = status.CRCError
)

// Error is returned, wrapped behind the error interface, whenever Inflate,
// GzipInflate, or GzipISize fails.
type Error = status.Error

// Inflate decompresses a raw DEFLATE stream from src into dst, returning
// the number of bytes written. On error n is always 0 and dst's contents
// are unspecified.
func Inflate(src, dst []byte) (int, error) {
	return deflate.New(src, dst).Inflate()
}

// GzipInflate decompresses a single gzip member from src into dst,
// verifying the trailer's CRC-32 and ISIZE against the decompressed
// bytes. On error n is always 0.
func GzipInflate(src, dst []byte) (int, error) {
	return gzipcontainer.Inflate(src, dst)
}

// GzipISize reads the trailing ISIZE field (uncompressed size modulo
// 2^32) directly from a gzip member, without running the DEFLATE decoder.
func GzipISize(src []byte) (uint32, error) {
	return gzipcontainer.ISize(src)
}
