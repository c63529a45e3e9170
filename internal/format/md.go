package format

import "github.com/TheAnsarya/poppy-sub004/internal/analyze"

// WrapMD writes the Mega Drive header at $100-$1FF over the
// given code image; $000-$0FF (the vector table) is left to the source
// itself, as real Genesis code always supplies it.
func WrapMD(meta *analyze.Metadata, code []byte) []byte {
	const headerEnd = 0x200
	rom := padTo(code, headerEnd)

	copy(rom[0x100:0x110], []byte("SEGA MEGA DRIVE "))
	copy(rom[0x110:0x120], asciiPad(meta.Strs["md_copyright"], 16))
	copy(rom[0x120:0x150], asciiPad(meta.Strs["md_domestic_name"], 48))
	copy(rom[0x150:0x180], asciiPad(meta.Strs["md_overseas_name"], 48))
	copy(rom[0x180:0x18e], asciiPad(meta.Strs["md_product_code"], 14))
	copy(rom[0x1c8:0x1d8], asciiPad(meta.Strs["md_io_support"], 16))
	be32(rom[0x1a0:], uint32(len(rom)-1))
	be32(rom[0x1a8:], 0xff0000)
	be32(rom[0x1ac:], 0xffffff)
	copy(rom[0x1f0:0x1f3], asciiPad(meta.Strs["md_region"], 3))

	var sum uint16
	for i := 0x200; i < len(rom); i++ {
		sum += uint16(rom[i])
	}
	rom[0x18e] = byte(sum >> 8)
	rom[0x18f] = byte(sum)

	return rom
}

func be32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
