package format

import (
	"bytes"
	"testing"

	"github.com/TheAnsarya/poppy-sub004/internal/analyze"
)

func TestWrapINES(t *testing.T) {
	meta := analyze.NewMetadata()
	meta.Ints["ines_prg"] = 2
	meta.Ints["ines_chr"] = 1
	meta.Ints["ines_mapper"] = 1
	meta.Ints["ines_mirroring"] = 1

	got := WrapINES(meta, make([]byte, 0x8000))
	want := []byte{0x4e, 0x45, 0x53, 0x1a, 0x02, 0x01, 0x11, 0x08}
	if !bytes.Equal(got[:8], want) {
		t.Fatalf("header = % x, want % x", got[:8], want)
	}
	if len(got) != 16+0x8000 {
		t.Fatalf("len = %d, want %d", len(got), 16+0x8000)
	}
}

func TestWrapINESSubmapperAndTrainer(t *testing.T) {
	meta := analyze.NewMetadata()
	meta.Ints["ines_mapper"] = 0x14
	meta.Ints["ines_submapper"] = 3
	meta.Ints["ines_trainer"] = 1

	got := WrapINES(meta, nil)
	if got[6]&0x04 == 0 {
		t.Fatalf("flags6 trainer bit not set: %#x", got[6])
	}
	if mapperLow := got[6] >> 4; mapperLow != 0x4 {
		t.Fatalf("flags6 mapper nibble = %#x, want 0x4", mapperLow)
	}
	if mapperHigh := got[7] >> 4; mapperHigh != 0x1 {
		t.Fatalf("flags7 mapper nibble = %#x, want 0x1", mapperHigh)
	}
	if got[7]&0x08 == 0 {
		t.Fatalf("iNES2.0 marker bit not set: %#x", got[7])
	}
	if got[8]>>4 != 3 {
		t.Fatalf("submapper = %#x, want 3", got[8]>>4)
	}
}

func TestWrapSNESLoROMChecksum(t *testing.T) {
	meta := analyze.NewMetadata()
	meta.MapMode = "lorom"
	meta.Strs["snes_title"] = "TEST GAME"

	rom := WrapSNES(meta, make([]byte, 100))
	if len(rom) != 32*1024 {
		t.Fatalf("len = %d, want %d", len(rom), 32*1024)
	}

	// Sum with all four checksum/complement bytes ($7FDC-$7FDF) treated
	// as zero, the way the wrapper computed it.
	var sum uint16
	for i, b := range rom {
		if i >= 0x7fdc && i <= 0x7fdf {
			continue
		}
		sum += uint16(b)
	}
	gotSum := uint16(rom[0x7fde]) | uint16(rom[0x7fdf])<<8
	if gotSum != sum {
		t.Fatalf("checksum = %#x, want %#x", gotSum, sum)
	}
	gotComp := uint16(rom[0x7fdc]) | uint16(rom[0x7fdd])<<8
	if gotComp != ^sum {
		t.Fatalf("complement = %#x, want %#x", gotComp, ^sum)
	}
}

func TestWrapSNESHiROMOffset(t *testing.T) {
	meta := analyze.NewMetadata()
	meta.MapMode = "hirom"

	rom := WrapSNES(meta, make([]byte, 100))
	if rom[0xffd5] != 0x21 {
		t.Fatalf("map byte = %#x, want 0x21", rom[0xffd5])
	}
}

func TestWrapGBHeaderChecksum(t *testing.T) {
	meta := analyze.NewMetadata()
	meta.Strs["gb_title"] = "POPPY"

	rom := WrapGB(meta, []byte{0x00})

	var headerSum byte
	for i := 0x134; i <= 0x14c; i++ {
		headerSum = headerSum - rom[i] - 1
	}
	if rom[0x14d] != headerSum {
		t.Fatalf("header checksum = %#x, want %#x", rom[0x14d], headerSum)
	}
	if !bytes.Equal(rom[0x104:0x134], nintendoLogo) {
		t.Fatalf("nintendo logo not copied at $104")
	}
}

func TestWrapGBGlobalChecksum(t *testing.T) {
	rom := WrapGB(analyze.NewMetadata(), make([]byte, 16))

	var global uint16
	for i, b := range rom {
		if i == 0x14e || i == 0x14f {
			continue
		}
		global += uint16(b)
	}
	got := uint16(rom[0x14e])<<8 | uint16(rom[0x14f])
	if got != global {
		t.Fatalf("global checksum = %#x, want %#x", got, global)
	}
}

func TestWrapMDHeaderMagic(t *testing.T) {
	meta := analyze.NewMetadata()
	rom := WrapMD(meta, make([]byte, 0x400))
	if string(rom[0x100:0x110]) != "SEGA MEGA DRIVE " {
		t.Fatalf("magic = %q", rom[0x100:0x110])
	}
}

func TestWrapGBAFixedBytes(t *testing.T) {
	rom := WrapGBA(analyze.NewMetadata(), make([]byte, 0x100))
	if rom[0xb2] != 0x96 {
		t.Fatalf("fixed byte = %#x, want 0x96", rom[0xb2])
	}
	var sum int
	for i := 0xa0; i <= 0xbc; i++ {
		sum += int(rom[i])
	}
	want := byte((-0x19 - sum) & 0xff)
	if rom[0xbd] != want {
		t.Fatalf("complement = %#x, want %#x", rom[0xbd], want)
	}
}

func TestWrapSMSFooter(t *testing.T) {
	rom := WrapSMS(analyze.NewMetadata(), make([]byte, 0x4000))
	if string(rom[0x7ff0:0x7ff8]) != "TMR SEGA" {
		t.Fatalf("footer magic = %q", rom[0x7ff0:0x7ff8])
	}
}

func TestWrapA26PadsToCartridgeSize(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{100, 2 * 1024},
		{2*1024 + 1, 4 * 1024},
		{9 * 1024, 16 * 1024},
	}
	for _, tt := range tests {
		got := len(WrapA26(make([]byte, tt.in)))
		if got != tt.want {
			t.Errorf("WrapA26(%d bytes) len = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestWrapLNXHeader(t *testing.T) {
	meta := analyze.NewMetadata()
	meta.Strs["lnx_cart_name"] = "POPPY"
	meta.Ints["lnx_page_size"] = 256

	out := WrapLNX(meta, []byte{0xea})
	if string(out[0:4]) != "LYNX" {
		t.Fatalf("magic = %q", out[0:4])
	}
	if len(out) != 64+1 {
		t.Fatalf("len = %d, want %d", len(out), 65)
	}
}

func TestWrapSPCPlacesCodeAtOrg(t *testing.T) {
	meta := analyze.NewMetadata()
	meta.Ints["spc_org"] = 0x200
	meta.Ints["spc_pc"] = 0x200

	out := WrapSPC(meta, []byte{0xcd, 0xef})
	if string(out[0:0x22]) != "SNES-SPC700 Sound File Data v0.30\x1a\x1a"[:0x22] {
		t.Fatalf("magic mismatch: %q", out[0:0x22])
	}
	ramStart := 0x100
	if out[ramStart+0x200] != 0xcd || out[ramStart+0x201] != 0xef {
		t.Fatalf("code not placed at org: % x", out[ramStart+0x200:ramStart+0x202])
	}
}

func TestWrapUnknownPlatform(t *testing.T) {
	if _, err := Wrap("not-a-real-platform", analyze.NewMetadata(), nil); err == nil {
		t.Fatal("expected error for unknown platform")
	}
}

func TestWrapPassthroughPlatforms(t *testing.T) {
	code := []byte{1, 2, 3}
	for _, p := range []string{"pce", "ws", ""} {
		got, err := Wrap(p, analyze.NewMetadata(), code)
		if err != nil {
			t.Fatalf("Wrap(%q) error: %v", p, err)
		}
		if !bytes.Equal(got, code) {
			t.Fatalf("Wrap(%q) = % x, want % x", p, got, code)
		}
	}
}
