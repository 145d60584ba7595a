// Package bitreader implements the sticky-overflow, LSB-first bit reader
// that every DEFLATE block decoder pulls its bits from.
//
// Bits are consumed from source one byte at a time, least-significant bit
// first, and packed into an accumulator so that the bit read earliest
// occupies the accumulator's lowest position. Multi-bit fields (BTYPE,
// HLIT, extra bits, ...) are therefore little-endian at the bit level: the
// first bit read is bit 0 of the returned value. A canonical Huffman code,
// by contrast, is decoded one bit at a time with the first bit becoming the
// code's most significant bit (see internal/huffman).
package bitreader

type Reader struct {
	source   []byte
	pos      int
	tag      uint32
	bitcount uint
	overflow bool
}

// New wraps src for bit-at-a-time reading starting at its first byte.
func New(src []byte) *Reader {
	return &Reader{source: src}
}

// Overflow reports whether the reader has ever tried to pull a byte past
// the end of source. The flag is sticky: once set it never clears. A
// caller should only treat it as fatal at a safe checkpoint (end of a
// Huffman symbol, end of a block) per spec.md's sticky-overflow design.
// Refill only pulls a byte when a requested bit is missing, so the unused
// padding bits of a valid stream's final byte never set the flag.
func (r *Reader) Overflow() bool { return r.overflow }

// Refill ensures at least num bits are available in the accumulator,
// pulling whole bytes from source as needed. If source is exhausted before
// num bits are available, it sets the sticky overflow flag and continues
// (this mirrors lib_inflate's refill: the request is always satisfied with
// zero-filled bits rather than failing outright, since a true failure is
// only meaningful once the caller checks Overflow at a safe point).
func (r *Reader) Refill(num uint) {
	for r.bitcount < num {
		if r.pos < len(r.source) {
			r.tag |= uint32(r.source[r.pos]) << r.bitcount
			r.pos++
		} else {
			r.overflow = true
		}
		r.bitcount += 8
	}
}

// GetBitsNoRefill extracts the low num bits of the accumulator without
// first calling Refill. Callers that already know enough bits are buffered
// (for example, immediately after a Refill call sized for a larger field)
// use this to avoid a redundant bounds check.
func (r *Reader) GetBitsNoRefill(num uint) uint32 {
	bits := r.tag & ((1 << num) - 1)
	r.tag >>= num
	r.bitcount -= num
	return bits
}

// GetBits refills as needed and returns the next num bits, least
// significant bit first in the stream.
func (r *Reader) GetBits(num uint) uint32 {
	r.Refill(num)
	return r.GetBitsNoRefill(num)
}

// GetBitsBase reads num extra bits (zero if num is 0) and adds them to
// base, the standard "extra bits plus base value" shape used throughout
// the length/distance tables.
func (r *Reader) GetBitsBase(num uint, base uint32) uint32 {
	if num == 0 {
		return base
	}
	return base + r.GetBits(num)
}

// GetBit reads a single bit, used one at a time while walking a Huffman
// tree: unlike GetBits, the decoder folds each bit in as the new low bit
// of a growing MSB-first code value (see internal/huffman.Decode), so the
// accumulator semantics are identical but the caller's combination order
// differs.
func (r *Reader) GetBit() uint32 {
	return r.GetBits(1)
}

// ConsumedBytes returns how many whole bytes of source have been logically
// consumed so far, rounded up to the next byte boundary. Used by
// internal/gzipcontainer to find where a DEFLATE stream ends and its
// trailer begins, since the stream need not end on a byte boundary: any
// unused bits in the final partial byte belong to the compressed data's
// padding, not to the trailer.
func (r *Reader) ConsumedBytes() int {
	return r.pos - int(r.bitcount/8)
}

// ByteAlign discards any bits left in the accumulator and resets it, so
// the next read resumes at the next whole byte of source. Used once, right
// after reading BFINAL/BTYPE, to reach a stored block's raw length fields.
func (r *Reader) ByteAlign() {
	r.tag = 0
	r.bitcount = 0
}

// ReadRawByte reads one raw, unbuffered byte directly from source. It is
// only valid to call after ByteAlign, while decoding a stored block's
// LEN/NLEN fields and literal data.
func (r *Reader) ReadRawByte() (byte, bool) {
	if r.pos >= len(r.source) {
		r.overflow = true
		return 0, false
	}
	b := r.source[r.pos]
	r.pos++
	return b, true
}

// ReadRawBytes reads n raw bytes directly from source, returning false (and
// setting the sticky overflow flag) if fewer than n remain.
func (r *Reader) ReadRawBytes(n int) ([]byte, bool) {
	if r.pos+n > len(r.source) {
		r.overflow = true
		return nil, false
	}
	b := r.source[r.pos : r.pos+n]
	r.pos += n
	return b, true
}
