package format

import "github.com/TheAnsarya/poppy-sub004/internal/analyze"

// gbaLogo is a stand-in for the 156-byte fixed Nintendo logo the GBA BIOS
// checks before booting a cartridge. Real logo bytes are copyrighted
// bitmap data; this implementation reserves the field at the right
// offset and size so real logo data can be substituted without changing
// the header layout.
var gbaLogo = make([]byte, 156)

// WrapGBA builds the 192-byte GBA header.
func WrapGBA(meta *analyze.Metadata, code []byte) []byte {
	const headerSize = 0xc0
	rom := padTo(code, headerSize)

	// b 0xC0 — a fixed ARM branch over the header, the standard GBA boot
	// stub every real cartridge starts with.
	copy(rom[0x00:0x04], []byte{0x2e, 0x00, 0x00, 0xea})
	copy(rom[0x04:0xa0], gbaLogo)
	copy(rom[0xa0:0xac], asciiPad(meta.Strs["gba_title"], 12))
	copy(rom[0xac:0xb0], asciiPad(meta.Strs["gba_game_code"], 4))
	copy(rom[0xb0:0xb2], asciiPad(meta.Strs["gba_maker_code"], 2))
	rom[0xb2] = 0x96
	rom[0xbc] = byte(meta.Ints["gba_version"])

	var sum int
	for i := 0xa0; i <= 0xbc; i++ {
		sum += int(rom[i])
	}
	rom[0xbd] = byte((-0x19 - sum) & 0xff)

	return rom
}
