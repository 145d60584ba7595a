package gzipcontainer

// crcTable is the 16-entry nibble lookup table for CRC-32 (IEEE 802.3
// polynomial 0xEDB88320, reflected), processing each byte as two 4-bit
// nibbles. spec.md names CRC-32 as one of THE CORE's explicit-algorithm
// components, so it is hand-written against this exact table rather than
// delegated to hash/crc32 (see DESIGN.md).
var crcTable = [16]uint32{
	0x00000000, 0x1db71064, 0x3b6e20c8, 0x26d930ac,
	0x76dc4190, 0x6b6b51f4, 0x4db26158, 0x5005713c,
	0xedb88320, 0xf00f9344, 0xd6d6a3e8, 0xcb61b38c,
	0x9b64c2b0, 0x86d3d2d4, 0xa00ae278, 0xbdbdf21c,
}

// crc32 computes the standard CRC-32 of data. There is no empty-input
// special case (REDESIGN FLAGS / DESIGN.md): the general algorithm already
// returns 0 for a zero-length input, since the initial 0xFFFFFFFF is XORed
// right back out after zero rounds.
func crc32(data []byte) uint32 {
	crc := uint32(0xFFFFFFFF)
	for _, b := range data {
		crc = crcTable[(crc^uint32(b))&0x0f] ^ (crc >> 4)
		crc = crcTable[(crc^(uint32(b)>>4))&0x0f] ^ (crc >> 4)
	}
	return crc ^ 0xFFFFFFFF
}
