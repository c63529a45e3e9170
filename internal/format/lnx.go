package format

import "github.com/TheAnsarya/poppy-sub004/internal/analyze"

// WrapLNX builds the 64-byte Atari Lynx header.
func WrapLNX(meta *analyze.Metadata, code []byte) []byte {
	header := make([]byte, 64)
	copy(header[0:4], []byte("LYNX"))
	le16(header[4:], uint16(meta.Ints["lnx_page_size"]))
	le16(header[6:], uint16(meta.Ints["lnx_bank0_pages"]))
	le16(header[8:], uint16(meta.Ints["lnx_bank1_pages"]))
	le16(header[10:], uint16(meta.Ints["lnx_version"]))
	copy(header[12:44], asciiPad(meta.Strs["lnx_cart_name"], 32))
	copy(header[44:60], asciiPad(meta.Strs["lnx_manufacturer"], 16))
	header[60] = byte(meta.Ints["lnx_rotation"])

	out := make([]byte, 0, len(header)+len(code))
	out = append(out, header...)
	out = append(out, code...)
	return out
}

func le16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}
