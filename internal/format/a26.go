package format

// WrapA26 pads the image to the nearest real Atari 2600 cartridge size
// (2/4/8/16 KB); the reset vector lives wherever the source placed it, at
// the top of whichever bank the cartridge mapper puts last.
func WrapA26(code []byte) []byte {
	for _, size := range []int{2 * 1024, 4 * 1024, 8 * 1024, 16 * 1024} {
		if len(code) <= size {
			return padTo(code, size)
		}
	}
	return code
}
