// Package huffman builds and decodes canonical Huffman trees the way
// lib_inflate.c does: a per-length symbol-count table plus a sorted symbol
// array, walked one bit at a time with no lookup table. It is the
// table-free counterpart to a chunked decoder; spec.md specifies this
// exact algorithm, not the faster chunked variant some decoders use.
package huffman

import (
	"github.com/coredeflate/tinflate/internal/bitreader"
	"github.com/coredeflate/tinflate/internal/status"
)

// maxBits is the longest code length DEFLATE allows (RFC 1951 §3.2.2).
const maxBits = 15

// maxSymbols is large enough for either alphabet THE CORE ever builds: the
// 288-entry literal/length alphabet is the largest.
const maxSymbols = 288

// Kind tags the shape of a tree Build produced, replacing the single
// silently-patched "symbol too large" placeholder spec.md's REDESIGN FLAGS
// calls out.
type Kind int

const (
	// Complete is a tree whose codes exactly tile the codespace (the
	// ordinary case).
	Complete Kind = iota
	// SingleCode is a degenerate tree with exactly one non-zero-length
	// symbol. RFC 1951 §3.2.7 requires decoders to accept this for the
	// distance alphabet (the symbol is still read as one bit); this
	// implementation accepts it uniformly for every alphabet.
	SingleCode
	// Empty is a tree with no non-zero-length symbols at all. Legal
	// only where the block never decodes a symbol from it (an unused
	// distance tree).
	Empty
)

// Tree is a canonical Huffman code table: Counts[l] is the number of
// symbols with code length l, and Symbols lists every present symbol
// sorted first by length then by ascending symbol value, matching the
// canonical code assignment.
type Tree struct {
	Counts  [maxBits + 1]uint16
	Symbols [maxSymbols]uint16
	MaxSym  int
}

// Build constructs a canonical Huffman tree from a per-symbol length
// table (0 meaning the symbol is absent), validating the Kraft inequality
// exactly as lib_inflate_build_tree does: the loop runs over every length
// from 0 through maxBits inclusive so that the implicit two-way branch at
// the root is accounted for before length 1 is considered (spec.md's
// prose description elides this initial step; this is resolved here in
// original_source's favor, since a literal reading of spec.md's shorthand
// would incorrectly reject ordinary complete codes such as a 1/2/3/3-bit
// alphabet).
func Build(lengths []uint8) (Kind, *Tree, error) {
	if len(lengths) > maxSymbols {
		return 0, nil, status.Data("too many symbols: %d", len(lengths))
	}

	t := &Tree{MaxSym: -1}
	for i, l := range lengths {
		if l == 0 {
			continue
		}
		if int(l) > maxBits {
			return 0, nil, status.Data("code length %d exceeds %d bits", l, maxBits)
		}
		t.MaxSym = i
		t.Counts[l]++
	}

	var offs [maxBits + 1]uint16
	available := uint32(1)
	numCodes := uint32(0)
	for l := 0; l <= maxBits; l++ {
		used := uint32(t.Counts[l])
		if used > available {
			return 0, nil, status.Data("over-subscribed Huffman code at length %d", l)
		}
		available = 2 * (available - used)
		offs[l] = uint16(numCodes)
		numCodes += used
	}

	for i, l := range lengths {
		if l != 0 {
			t.Symbols[offs[l]] = uint16(i)
			offs[l]++
		}
	}

	switch {
	case numCodes == 0:
		return Empty, t, nil
	case numCodes == 1:
		return SingleCode, t, nil
	case available > 0:
		return 0, nil, status.Data("incomplete Huffman code: %d unused codeword(s)", available)
	default:
		return Complete, t, nil
	}
}

// FixedLiteralTree returns the hardcoded fixed-Huffman literal/length tree
// from RFC 1951 §3.2.6: lengths 8 for symbols 0-143, 9 for 144-255, 7 for
// 256-279, and 8 again for 280-287.
func FixedLiteralTree() *Tree {
	var lengths [288]uint8
	for i := 0; i <= 143; i++ {
		lengths[i] = 8
	}
	for i := 144; i <= 255; i++ {
		lengths[i] = 9
	}
	for i := 256; i <= 279; i++ {
		lengths[i] = 7
	}
	for i := 280; i <= 287; i++ {
		lengths[i] = 8
	}
	_, t, err := Build(lengths[:])
	if err != nil {
		// The fixed table is a fixed constant of the format; it always
		// produces a Complete tree, so this can never happen.
		panic("huffman: fixed literal table failed to build: " + err.Error())
	}
	return t
}

// FixedDistanceTree returns the hardcoded fixed-Huffman distance tree from
// RFC 1951 §3.2.6: all 32 distance codes (0-31) get a 5-bit code, which
// completes the code space; codes 30 and 31 never appear in valid data and
// are rejected by the block decoder.
func FixedDistanceTree() *Tree {
	var lengths [32]uint8
	for i := range lengths {
		lengths[i] = 5
	}
	_, t, err := Build(lengths[:])
	if err != nil {
		panic("huffman: fixed distance table failed to build: " + err.Error())
	}
	return t
}

// Decode walks r bit by bit against t and returns the next symbol.
// Complete trees are decoded exactly as lib_inflate_decode_symbol does:
// each bit folds into offs as offs = 2*offs + bit, so the first bit read
// becomes the code's most significant bit. SingleCode trees consume
// exactly one bit, matching lib_inflate_decode_symbol's single-code patch:
// a 0 bit resolves to the tree's only symbol, a 1 bit is the codeword the
// real encoder never emits and is rejected as a data error.
func Decode(r *bitreader.Reader, kind Kind, t *Tree) (int, error) {
	switch kind {
	case Empty:
		return 0, status.Data("attempted to decode a symbol from an empty Huffman tree")
	case SingleCode:
		if r.GetBit() == 0 {
			return t.MaxSym, nil
		}
		return 0, status.Data("single-code Huffman tree: invalid codeword")
	}

	base, offs := 0, 0
	for length := 1; length <= maxBits; length++ {
		offs = 2*offs + int(r.GetBit())
		count := int(t.Counts[length])
		if offs < count {
			return int(t.Symbols[base+offs]), nil
		}
		base += count
		offs -= count
	}
	return 0, status.Data("Huffman code exceeds %d bits", maxBits)
}
