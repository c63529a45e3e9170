package format

import "github.com/TheAnsarya/poppy-sub004/internal/analyze"

// nintendoLogo is the fixed 48-byte bitmap the Game Boy boot ROM compares
// against before it will run a cartridge.
var nintendoLogo = []byte{
	0xce, 0xed, 0x66, 0x66, 0xcc, 0x0d, 0x00, 0x0b, 0x03, 0x73, 0x00, 0x83,
	0x00, 0x0c, 0x00, 0x0d, 0x00, 0x08, 0x11, 0x1f, 0x88, 0x89, 0x00, 0x0e,
	0xdc, 0xcc, 0x6e, 0xe6, 0xdd, 0xdd, 0xd9, 0x99, 0xbb, 0xbb, 0x67, 0x63,
	0x6e, 0x0e, 0xec, 0xcc, 0xdd, 0xdc, 0x99, 0x9f, 0xbb, 0xb9, 0x33, 0x3e,
}

// WrapGB builds the $0100-$014F Game Boy header and places
// the code image starting at $0150.
func WrapGB(meta *analyze.Metadata, code []byte) []byte {
	const headerEnd = 0x150
	rom := padTo(nil, headerEnd)
	rom = append(rom, code...)
	if len(rom) < headerEnd+len(code) {
		rom = padTo(rom, headerEnd+len(code))
	}

	copy(rom[0x100:0x104], []byte{0x00, 0xc3, 0x50, 0x01}) // nop; jp $0150
	copy(rom[0x104:0x134], nintendoLogo)
	copy(rom[0x134:0x13f], asciiPad(meta.Strs["gb_title"], 11))
	rom[0x143] = byte(meta.Ints["gb_cgb"])
	rom[0x144], rom[0x145] = '0', '0'
	rom[0x147] = byte(meta.Ints["gb_mbc"])
	rom[0x148] = gbRomSizeCode(len(rom))
	rom[0x149] = byte(meta.Ints["gb_ram_size"])
	rom[0x14a] = byte(meta.Ints["gb_region"])
	rom[0x14b] = 0x33
	rom[0x14c] = 0

	var headerSum byte
	for i := 0x134; i <= 0x14c; i++ {
		headerSum = headerSum - rom[i] - 1
	}
	rom[0x14d] = headerSum

	var global uint16
	for i, b := range rom {
		if i == 0x14e || i == 0x14f {
			continue
		}
		global += uint16(b)
	}
	rom[0x14e] = byte(global >> 8)
	rom[0x14f] = byte(global)

	return rom
}

func gbRomSizeCode(size int) byte {
	kb := size / 1024
	var n byte
	for unit := 32; unit < kb; unit *= 2 {
		n++
	}
	return n
}
