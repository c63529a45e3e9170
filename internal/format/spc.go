package format

import "github.com/TheAnsarya/poppy-sub004/internal/analyze"

// WrapSPC builds an SPC700 sound snapshot: a fixed header with CPU register
// state, an ID666 metadata tag, the 64KB RAM image with the code placed at
// its load address, a 128-byte DSP register dump, and 64 bytes of extra
// RAM.
func WrapSPC(meta *analyze.Metadata, code []byte) []byte {
	const (
		headerSize = 0x100
		ramSize    = 0x10000
		dspSize    = 0x80
		unusedSize = 0x80
		extraSize  = 0x40
	)

	out := make([]byte, headerSize+ramSize+dspSize+unusedSize+extraSize)

	copy(out[0x00:0x21], []byte("SNES-SPC700 Sound File Data v0.30"))
	out[0x21], out[0x22] = 0x1a, 0x1a
	out[0x23] = 0x1a // has-ID666 tag marker
	out[0x24] = 30   // version minor

	pc := meta.Ints["spc_pc"]
	out[0x25] = byte(pc)
	out[0x26] = byte(pc >> 8)
	out[0x27] = byte(meta.Ints["spc_a"])
	out[0x28] = byte(meta.Ints["spc_x"])
	out[0x29] = byte(meta.Ints["spc_y"])
	out[0x2a] = byte(meta.Ints["spc_psw"])
	out[0x2b] = byte(meta.Ints["spc_sp"])

	id666 := out[0x2e:0x100]
	copy(id666[0x00:0x20], asciiPad(meta.Strs["spc_song_title"], 32))
	copy(id666[0x20:0x40], asciiPad(meta.Strs["spc_game_title"], 32))
	copy(id666[0x40:0x50], asciiPad(meta.Strs["spc_dumper"], 16))
	copy(id666[0x50:0x80], asciiPad(meta.Strs["spc_comments"], 48))
	copy(id666[0x83:0xa3], asciiPad(meta.Strs["spc_artist"], 32))

	ram := out[headerSize : headerSize+ramSize]
	org := int(meta.Ints["spc_org"])
	if org >= 0 && org < len(ram) && len(code) > 0 {
		end := org + len(code)
		if end > len(ram) {
			end = len(ram)
		}
		copy(ram[org:end], code[:end-org])
	}

	return out
}
