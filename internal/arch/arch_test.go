package arch

import (
	"bytes"
	"testing"

	"github.com/TheAnsarya/poppy-sub004/internal/ast"
)

func TestFindKnowsEverySelector(t *testing.T) {
	for _, name := range []string{
		"6502", "6507", "65c02", "65sc02", "65816", "sm83", "z80", "m68000",
		"arm7", "huc6280", "v30mz", "spc700",
		"nes", "snes", "gb", "genesis", "gba", "sms", "pce", "a26", "lnx", "spc",
	} {
		if _, ok := Find(name); !ok {
			t.Errorf("no descriptor registered for %q", name)
		}
	}
}

func Test6502ImmediateEncoding(t *testing.T) {
	enc, ok := MOS6502.Lookup("lda", ast.AddrImmediate, 0, "", "")
	if !ok || !bytes.Equal(enc.Opcode, []byte{0xa9}) || enc.OperandBytes != 1 {
		t.Fatalf("lda #imm = %+v ok=%v", enc, ok)
	}
}

func Test6502DirectWidths(t *testing.T) {
	zp, ok := MOS6502.Lookup("sta", ast.AddrDirect, 1, "", "")
	if !ok || zp.Opcode[0] != 0x85 {
		t.Fatalf("sta zp = %+v", zp)
	}
	abs, ok := MOS6502.Lookup("sta", ast.AddrDirect, 2, "", "")
	if !ok || abs.Opcode[0] != 0x8d {
		t.Fatalf("sta abs = %+v", abs)
	}
}

func Test65816ImmediateWidthsPerFlagState(t *testing.T) {
	st := State{MFlag8: true, XFlag8: false, FlagsKnown: true}
	if w := Mos65816.DefaultWidth(Mos65816, "lda", ast.AddrImmediate, "", "", st); w != 1 {
		t.Fatalf("lda #imm under M=8 reserves %d bytes, want 1", w)
	}
	if w := Mos65816.DefaultWidth(Mos65816, "ldx", ast.AddrImmediate, "", "", st); w != 2 {
		t.Fatalf("ldx #imm under X=16 reserves %d bytes, want 2", w)
	}
	st.FlagsKnown = false
	if w := Mos65816.DefaultWidth(Mos65816, "lda", ast.AddrImmediate, "", "", st); w != 2 {
		t.Fatalf("unknown flag state must reserve the wide form, got %d", w)
	}
}

func Test65816RepSepAlwaysOneByte(t *testing.T) {
	st := State{MFlag8: false, XFlag8: false, FlagsKnown: true}
	for _, m := range []string{"rep", "sep"} {
		w := Mos65816.DefaultWidth(Mos65816, m, ast.AddrImmediate, "", "", st)
		if w != 1 {
			t.Fatalf("%s width = %d, want 1", m, w)
		}
		enc, ok := Mos65816.Lookup(m, ast.AddrImmediate, w, "", "")
		if !ok || enc.OperandBytes != 1 {
			t.Fatalf("%s lookup at width 1 = %+v ok=%v", m, enc, ok)
		}
	}
}

func TestSM83RegisterKeyedLoads(t *testing.T) {
	tests := []struct {
		reg  string
		want byte
	}{
		{"b", 0x06}, {"c", 0x0e}, {"a", 0x3e},
	}
	for _, tt := range tests {
		enc, ok := SM83.Lookup("ld", ast.AddrImmediate, 1, tt.reg, "")
		if !ok || enc.Opcode[0] != tt.want {
			t.Fatalf("ld %s,n = %+v ok=%v, want opcode %#x", tt.reg, enc, ok, tt.want)
		}
	}
}

func TestSM83LoadDirectionsDistinct(t *testing.T) {
	store, ok := SM83.Lookup("ld", ast.AddrRegIndirectInc, 0, "hl", "a")
	if !ok || store.Opcode[0] != 0x22 {
		t.Fatalf("ld (hl+),a = %+v ok=%v", store, ok)
	}
	load, ok := SM83.Lookup("ld", ast.AddrRegIndirectInc, 0, "a", "hl")
	if !ok || load.Opcode[0] != 0x2a {
		t.Fatalf("ld a,(hl+) = %+v ok=%v", load, ok)
	}
}

func TestSM83RegisterPairGrid(t *testing.T) {
	enc, ok := SM83.Lookup("ld", ast.AddrRegPair, 0, "b", "c")
	if !ok || enc.Opcode[0] != 0x41 {
		t.Fatalf("ld b,c = %+v ok=%v, want 0x41", enc, ok)
	}
	enc, ok = SM83.Lookup("ld", ast.AddrRegIndirect, 0, "d", "hl")
	if !ok || enc.Opcode[0] != 0x56 {
		t.Fatalf("ld d,(hl) = %+v ok=%v, want 0x56", enc, ok)
	}
}

func TestSM83CBPrefix(t *testing.T) {
	enc, ok := SM83.Lookup("swap", ast.AddrRegister, 0, "a", "")
	if !ok || !bytes.Equal(enc.Opcode, []byte{0xcb, 0x37}) {
		t.Fatalf("swap a = %+v ok=%v, want cb 37", enc, ok)
	}
}

func TestSM83ConditionalBranch(t *testing.T) {
	enc, ok := SM83.Lookup("jr", ast.AddrDirect, 1, "nz", "")
	if !ok || enc.Opcode[0] != 0x20 || !enc.IsBranch || enc.BranchField != 8 {
		t.Fatalf("jr nz = %+v ok=%v", enc, ok)
	}
	plain, ok := SM83.Lookup("jr", ast.AddrDirect, 1, "", "")
	if !ok || plain.Opcode[0] != 0x18 {
		t.Fatalf("jr = %+v ok=%v", plain, ok)
	}
}

func TestZ80LayersOverSM83(t *testing.T) {
	enc, ok := Z80.Lookup("ldir", ast.AddrNone, 0, "", "")
	if !ok || !bytes.Equal(enc.Opcode, []byte{0xed, 0xb0}) {
		t.Fatalf("ldir = %+v ok=%v", enc, ok)
	}
	enc, ok = Z80.Lookup("djnz", ast.AddrDirect, 1, "", "")
	if !ok || enc.Opcode[0] != 0x10 || !enc.IsBranch {
		t.Fatalf("djnz = %+v ok=%v", enc, ok)
	}
	// The shared SM83 core survives underneath.
	enc, ok = Z80.Lookup("ld", ast.AddrImmediate, 1, "b", "")
	if !ok || enc.Opcode[0] != 0x06 {
		t.Fatalf("z80 ld b,n = %+v ok=%v", enc, ok)
	}
}

func TestZ80IndexedDisplacement(t *testing.T) {
	enc, ok := Z80.Lookup("ld", ast.AddrRegIndirectDisp, 1, "a", "ix")
	if !ok || !bytes.Equal(enc.Opcode, []byte{0xdd, 0x7e}) {
		t.Fatalf("ld a,(ix+d) = %+v ok=%v", enc, ok)
	}
}

func TestRegisterFallbackForShapeLevelTables(t *testing.T) {
	// M68000 rows are keyed register-agnostic; a register-pair statement
	// must fall back through the chain and still find its shape.
	if _, ok := M68000.Lookup("exg", ast.AddrRegPair, 0, "d0", "d1"); !ok {
		t.Fatal("exg d0,d1 did not reach the shape-level row")
	}
	if _, ok := M68000.Lookup("move", ast.AddrRegPair, 0, "d0", "d1"); !ok {
		t.Fatal("move d0,d1 did not fall back from RegPair to Register")
	}
}

func TestARMThumbWidthKeys(t *testing.T) {
	st := State{FlagsKnown: true}
	armKey := ARM7TDMI.DefaultWidth(ARM7TDMI, "b", ast.AddrDirect, "", "", st)
	enc, ok := ARM7TDMI.Lookup("b", ast.AddrDirect, armKey, "", "")
	if !ok || len(enc.Opcode)+enc.OperandBytes != 4+4 {
		t.Fatalf("ARM b = %+v ok=%v (key %d)", enc, ok, armKey)
	}
	if enc.BranchField != 24 {
		t.Fatalf("ARM branch field = %d, want 24", enc.BranchField)
	}

	st.Thumb = true
	thumbKey := ARM7TDMI.DefaultWidth(ARM7TDMI, "b", ast.AddrDirect, "", "", st)
	if thumbKey == armKey {
		t.Fatal("Thumb and ARM selected the same table key")
	}
	tenc, ok := ARM7TDMI.Lookup("b", ast.AddrDirect, thumbKey, "", "")
	if !ok || tenc.BranchField != 11 {
		t.Fatalf("Thumb b = %+v ok=%v", tenc, ok)
	}
}

func TestBigEndianM68000(t *testing.T) {
	if M68000.Endian != BigEndian {
		t.Fatal("M68000 must be big-endian")
	}
}

func TestEveryBranchHasAField(t *testing.T) {
	for _, d := range []*Descriptor{MOS6502, Mos65C02, Mos65816, HuC6280, SM83, Z80, M68000, ARM7TDMI, V30MZ, SPC700} {
		for key, enc := range d.Opcodes {
			if enc.IsBranch && enc.BranchField <= 0 {
				t.Errorf("%s: branch %v has no displacement field width", d.Name, key)
			}
		}
	}
}
