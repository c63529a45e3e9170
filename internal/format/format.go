// Package format wraps an assembled code image in its target platform's
// cartridge header and computes whatever checksum that
// header defines. Each platform gets its own small, table-free function;
// there is no shared "header" abstraction because the layouts don't
// share enough structure to be worth one.
package format

import (
	"fmt"

	"github.com/TheAnsarya/poppy-sub004/internal/analyze"
)

// Wrap dispatches to the formatter for platform and returns the complete
// cartridge image.
func Wrap(platform string, meta *analyze.Metadata, code []byte) ([]byte, error) {
	switch platform {
	case "nes":
		return WrapINES(meta, code), nil
	case "snes":
		return WrapSNES(meta, code), nil
	case "gb", "gbc":
		return WrapGB(meta, code), nil
	case "genesis", "md":
		return WrapMD(meta, code), nil
	case "gba":
		return WrapGBA(meta, code), nil
	case "sms", "gg":
		return WrapSMS(meta, code), nil
	case "pce", "ws":
		return code, nil
	case "a26":
		return WrapA26(code), nil
	case "lnx":
		return WrapLNX(meta, code), nil
	case "spc":
		return WrapSPC(meta, code), nil
	case "":
		return code, nil
	default:
		return nil, fmt.Errorf("format: unknown platform %q", platform)
	}
}

func asciiPad(s string, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	copy(b, s)
	return b
}

func nextPow2(min int) int {
	n := 1
	for n < min {
		n <<= 1
	}
	return n
}

func padTo(data []byte, n int) []byte {
	if len(data) >= n {
		return data
	}
	out := make([]byte, n)
	copy(out, data)
	return out
}
