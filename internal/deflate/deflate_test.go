package deflate

import (
	"bytes"
	"compress/flate"
	"errors"
	"testing"

	"github.com/coredeflate/tinflate/internal/status"
)

func TestStoredEmptyBlock(t *testing.T) {
	// spec.md's concrete scenario: BFINAL=1, BTYPE=0 (stored), LEN=0,
	// NLEN=0xFFFF (one's complement of 0).
	src := []byte{0x01, 0x00, 0x00, 0xFF, 0xFF}
	dst := make([]byte, 8)
	n, err := New(src, dst).Inflate()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("n = %d, want 0", n)
	}
}

func TestStoredCorruptedComplement(t *testing.T) {
	// LEN=0x0003, NLEN=0x0000: NLEN is not the one's complement of LEN.
	src := []byte{0x01, 0x03, 0x00, 0x00, 0x00}
	dst := make([]byte, 8)
	_, err := New(src, dst).Inflate()
	if err == nil {
		t.Fatal("expected an error for a stored block with LEN/NLEN mismatch")
	}
}

func TestFixedLiteralA(t *testing.T) {
	src := []byte{0x73, 0x04, 0x00}
	dst := make([]byte, 1)
	n, err := New(src, dst).Inflate()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || dst[0] != 'A' {
		t.Fatalf("decoded %q (n=%d), want \"A\"", dst[:n], n)
	}
}

func TestFixedRunLengthExpansion(t *testing.T) {
	// Literal 'a' followed by a length-5/distance-1 back-reference:
	// "a" + 5 copies of the previous byte = "aaaaaa".
	src := []byte{0x4B, 0x04, 0x03, 0x00}
	dst := make([]byte, 16)
	n, err := New(src, dst).Inflate()
	if err != nil {
		t.Fatal(err)
	}
	if string(dst[:n]) != "aaaaaa" {
		t.Fatalf("decoded %q, want \"aaaaaa\"", dst[:n])
	}
}

func TestMaximumLengthMatch(t *testing.T) {
	// Literal 'x' followed by a length-258/distance-1 back-reference:
	// 259 total copies of 'x'.
	src := []byte{0xAB, 0x18, 0x05, 0x00}
	dst := make([]byte, 512)
	n, err := New(src, dst).Inflate()
	if err != nil {
		t.Fatal(err)
	}
	if n != 259 {
		t.Fatalf("n = %d, want 259", n)
	}
	for i, b := range dst[:n] {
		if b != 'x' {
			t.Fatalf("dst[%d] = %q, want 'x'", i, b)
		}
	}
}

func TestFixedLiteralBufTooSmall(t *testing.T) {
	src := []byte{0x73, 0x04, 0x00}
	dst := make([]byte, 0)
	if _, err := New(src, dst).Inflate(); err == nil {
		t.Fatal("expected a buffer error decoding into a zero-length destination")
	}
}

func TestOverflowAtBlockCheckpointIsDataError(t *testing.T) {
	// BFINAL=1, BTYPE=1 (fixed), then nothing: the Huffman decode runs off
	// the end of src, the sticky overflow flag gets set, and the all-zero
	// padding bits decode straight to the fixed tree's end-of-block symbol
	// (256); the error surfaces at the checkpoint after that symbol.
	src := []byte{0x03}
	dst := make([]byte, 8)
	_, err := New(src, dst).Inflate()
	if err == nil {
		t.Fatal("expected an error for a stream truncated mid-block")
	}
	var serr *status.Error
	if !errors.As(err, &serr) {
		t.Fatalf("error is not *status.Error: %v", err)
	}
	if serr.Status != status.DataError {
		t.Fatalf("Status = %v, want DataError", serr.Status)
	}
}

func TestReservedBlockType(t *testing.T) {
	// BFINAL=1, BTYPE=3 (reserved): bits 1,1,1 -> byte 0x07.
	src := []byte{0x07}
	dst := make([]byte, 8)
	if _, err := New(src, dst).Inflate(); err == nil {
		t.Fatal("expected an error for reserved BTYPE=3")
	}
}

// bitWriter packs bits LSB-first per byte, mirroring internal/bitreader's
// reading order, so a test can hand-assemble a dynamic-Huffman header
// without going through a real encoder.
type bitWriter struct {
	buf   []byte
	cur   uint32
	nbits uint
}

func (w *bitWriter) writeBits(value uint32, n uint) {
	w.cur |= value << w.nbits
	w.nbits += n
	for w.nbits >= 8 {
		w.buf = append(w.buf, byte(w.cur))
		w.cur >>= 8
		w.nbits -= 8
	}
}

func (w *bitWriter) bytes() []byte {
	if w.nbits > 0 {
		w.buf = append(w.buf, byte(w.cur))
		w.cur, w.nbits = 0, 0
	}
	return w.buf
}

func TestDecodeTreesRejectsZeroLengthEndOfBlock(t *testing.T) {
	var w bitWriter
	w.writeBits(0, 5) // HLIT -> hlit = 257
	w.writeBits(0, 5) // HDIST -> hdist = 1
	w.writeBits(0, 4) // HCLEN -> hclen = 4

	// Code-length-alphabet lengths for clcOrder's first four entries
	// (symbols 16, 17, 18, 0): only symbol 0 gets a nonzero length, so the
	// code-length tree is a single-code tree whose only symbol is 0.
	w.writeBits(0, 3)
	w.writeBits(0, 3)
	w.writeBits(0, 3)
	w.writeBits(1, 3)

	// hlit+hdist = 258 entries, each decoded as code-length symbol 0
	// (literal length 0) by reading a single 0 bit from the single-code
	// tree. Every literal/length code, including the end-of-block symbol
	// 256, ends up with a zero code length.
	for i := 0; i < 257+1; i++ {
		w.writeBits(0, 1)
	}

	e := New(w.bytes(), nil)
	if _, _, _, _, err := e.decodeTrees(); err == nil {
		t.Fatal("expected an error for a zero-length end-of-block symbol")
	}
}

// TestRoundTripStandardEncoder exercises dynamic Huffman blocks (and every
// other path compress/flate chooses to emit) via the property spec.md §8
// names explicitly: inflate(E(P)) == P for any standard encoder E.
func TestRoundTripStandardEncoder(t *testing.T) {
	payloads := [][]byte{
		nil,
		[]byte("A"),
		[]byte("Hello, Hello! Hello, Hello!"),
		bytes.Repeat([]byte("abcabcabcabc"), 200),
		[]byte("The quick brown fox jumps over the lazy dog.\n"),
	}
	for _, level := range []int{flate.NoCompression, flate.BestSpeed, flate.BestCompression, flate.DefaultCompression} {
		for _, p := range payloads {
			var buf bytes.Buffer
			fw, err := flate.NewWriter(&buf, level)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := fw.Write(p); err != nil {
				t.Fatal(err)
			}
			if err := fw.Close(); err != nil {
				t.Fatal(err)
			}

			dst := make([]byte, len(p)+16)
			n, err := New(buf.Bytes(), dst).Inflate()
			if err != nil {
				t.Fatalf("level=%d payload=%q: %v", level, p, err)
			}
			if !bytes.Equal(dst[:n], p) {
				t.Fatalf("level=%d: got %q, want %q", level, dst[:n], p)
			}
		}
	}
}

func FuzzRoundTripStandardEncoder(f *testing.F) {
	f.Add([]byte("seed"))
	f.Add([]byte{})
	f.Fuzz(func(t *testing.T, payload []byte) {
		var buf bytes.Buffer
		fw, _ := flate.NewWriter(&buf, flate.BestCompression)
		fw.Write(payload)
		fw.Close()

		dst := make([]byte, len(payload))
		n, err := New(buf.Bytes(), dst).Inflate()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != len(payload) || !bytes.Equal(dst[:n], payload) {
			t.Fatalf("round trip mismatch: got %q, want %q", dst[:n], payload)
		}
	})
}
