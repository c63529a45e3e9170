package format

import "github.com/TheAnsarya/poppy-sub004/internal/analyze"

// WrapSNES places the SNES cartridge header at the offset its map mode
// dictates: $7FC0 for LoROM, $FFC0 for HiROM, $40FFC0 for
// ExHiROM. The ROM is padded to the next power-of-two size of at least
// 32KB first, then the header fields are written over that padded body,
// and finally the 16-bit checksum (and its one's complement) are
// computed over the whole body with the checksum field itself zeroed.
func WrapSNES(meta *analyze.Metadata, code []byte) []byte {
	const minSize = 32 * 1024
	size := nextPow2(len(code))
	if size < minSize {
		size = minSize
	}
	rom := padTo(code, size)

	offset := 0x7fc0
	mapByte := byte(0x20)
	switch meta.MapMode {
	case "hirom":
		offset = 0xffc0
		mapByte = 0x21
	case "exhirom":
		offset = 0x40ffc0
		mapByte = 0x25
	}
	if offset+64 > len(rom) {
		rom = padTo(rom, offset+64)
	}
	if meta.Ints["snes_fastrom"] != 0 {
		mapByte |= 0x10
	}

	title := asciiPad(meta.Strs["snes_title"], 21)
	copy(rom[offset:offset+21], title)
	rom[offset+21] = mapByte
	rom[offset+22] = byte(meta.Ints["snes_cart_type"])
	rom[offset+23] = romSizeCode(len(rom))
	rom[offset+24] = byte(meta.Ints["snes_sram_size"])
	rom[offset+25] = byte(meta.Ints["snes_region"])
	rom[offset+26] = byte(meta.Ints["snes_developer"])
	rom[offset+27] = byte(meta.Ints["snes_version"])
	// Checksum/complement (offset+28, offset+30) are computed last, with
	// both fields zeroed during the sum per the format's convention.
	rom[offset+28], rom[offset+29] = 0, 0
	rom[offset+30], rom[offset+31] = 0, 0

	var sum uint16
	for _, b := range rom {
		sum += uint16(b)
	}
	comp := ^sum
	rom[offset+28] = byte(comp)
	rom[offset+29] = byte(comp >> 8)
	rom[offset+30] = byte(sum)
	rom[offset+31] = byte(sum >> 8)

	return rom
}

// romSizeCode encodes a ROM size in bytes as log2(KB), the unit the SNES
// header field uses.
func romSizeCode(size int) byte {
	kb := size / 1024
	var n byte
	for kb > 1 {
		kb >>= 1
		n++
	}
	return n
}
