package format

import "github.com/TheAnsarya/poppy-sub004/internal/analyze"

// WrapINES builds a 16-byte iNES header:
// "NES\x1A" magic, 16KB/8KB PRG/CHR unit counts, the mapper's low nibble
// in the high nibble of flags6 and its high nibble in the high nibble of
// flags7, mirroring/battery
// in flags6, and the iNES 2.0 marker bit always set in flags7.
func WrapINES(meta *analyze.Metadata, code []byte) []byte {
	prg := byte(meta.Ints["ines_prg"])
	chr := byte(meta.Ints["ines_chr"])
	mapper := meta.Ints["ines_mapper"]
	mirroring := byte(meta.Ints["ines_mirroring"]) & 1
	battery := byte(meta.Ints["ines_battery"]) & 1
	trainer := meta.Ints["ines_trainer"] != 0

	flags6 := byte(mapper&0xf)<<4 | battery<<1 | mirroring
	if trainer {
		flags6 |= 0x04
	}
	flags7 := byte((mapper>>4)&0xf)<<4 | 0x08

	header := make([]byte, 16)
	copy(header, []byte{0x4e, 0x45, 0x53, 0x1a})
	header[4] = prg
	header[5] = chr
	header[6] = flags6
	header[7] = flags7
	header[9] = byte(meta.Ints["ines_region"])
	if sub := meta.Ints["ines_submapper"]; sub != 0 {
		header[8] = byte(sub) << 4
	}

	out := make([]byte, 0, len(header)+len(code))
	out = append(out, header...)
	out = append(out, code...)
	return out
}
