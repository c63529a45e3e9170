package lexer

// mnemonicSet is the ISA-agnostic union of every mnemonic accepted by any
// supported architecture descriptor.
// Architecture-specificity — whether a given mnemonic is legal for the
// active target — is enforced later, by the semantic analyzer consulting
// the selected instruction-set descriptor.
var mnemonicSet = buildMnemonicSet()

func buildMnemonicSet() map[string]bool {
	words := []string{
		// 6502 / 65C02 / 6507 / 65816 / HuC6280
		"adc", "and", "asl", "bcc", "bcs", "beq", "bit", "bmi", "bne", "bpl",
		"brk", "bvc", "bvs", "clc", "cld", "cli", "clv", "cmp", "cpx", "cpy",
		"dec", "dex", "dey", "eor", "inc", "inx", "iny", "jmp", "jsr", "lda",
		"ldx", "ldy", "lsr", "nop", "ora", "pha", "php", "pla", "plp", "rol",
		"ror", "rti", "rts", "sbc", "sec", "sed", "sei", "sta", "stx", "sty",
		"tax", "tay", "tsx", "txa", "txs", "tya",
		"bra", "phx", "phy", "plx", "ply", "stz", "trb", "tsb", "dea", "ina",
		"cop", "jml", "jsl", "mvn", "mvp", "pea", "pei", "per", "phb", "phd",
		"phk", "plb", "pld", "rep", "rtl", "sep", "stp", "tcd", "tcs", "tdc",
		"tsc", "txy", "tyx", "wai", "wdm", "xba", "xce", "brl", "bbr", "bbs",
		"rmb", "smb", "csh", "csl", "say", "sxy", "st0", "st1", "st2", "tam",
		"tma", "tai", "tdd", "tia", "tin",
		// SM83 / Z80
		"ld", "push", "pop", "add", "sub", "inc", "dec", "rlca", "rrca",
		"rla", "rra", "daa", "cpl", "scf", "ccf", "halt", "di", "ei", "call",
		"ret", "reti", "retn", "jr", "jp", "rst", "cp", "xor", "or", "cb",
		"rlc", "rrc", "rl", "rr", "sla", "sra", "sll", "srl", "bit", "res",
		"djnz", "ex", "exx", "im", "neg", "ldi", "ldir", "ldd", "lddr", "cpi",
		"cpir", "cpd", "cpdr", "ini", "inir", "ind", "indr", "outi", "otir",
		"outd", "otdr", "out", "in",
		// M68000
		"move", "movea", "movem", "movep", "moveq", "lea", "pea", "clr",
		"adda", "addq", "addi", "addx", "suba", "subq", "subi", "subx",
		"muls", "mulu", "divs", "divu", "cmpa", "cmpi", "cmpm", "tst", "chk",
		"andi", "ori", "eori", "not", "neg", "negx", "swap", "ext", "tas",
		"exg", "link", "unlk", "reset", "stop", "illegal", "trap", "trapv",
		"abcd", "sbcd", "nbcd", "btst", "bset", "bclr", "bchg", "asl", "asr",
		"lsl", "lsr", "rol", "ror", "roxl", "roxr", "bra", "bsr", "bhi",
		"bls", "bcc", "bcs", "bne", "beq", "bvc", "bvs", "bpl", "bmi", "bge",
		"blt", "bgt", "ble", "dbra", "dbf", "dbt", "rte", "rtr", "rts",
		// ARM7TDMI / Thumb
		"mov", "mvn", "cmn", "teq", "tst", "mrs", "msr", "ldr", "str", "ldm",
		"stm", "ldrb", "strb", "ldrh", "strh", "ldrsb", "ldrsh", "swi",
		"swp", "mla", "mul", "b", "bl", "bx", "blx",
		// V30MZ
		"mov", "xchg", "lea", "lahf", "sahf", "pushf", "popf", "aaa", "aas",
		"aam", "aad", "cbw", "cwd", "shl", "shr", "sar", "rcl", "rcr", "loop",
		"loope", "loopne", "int", "into", "iret", "hlt", "wait", "lock",
		"rep", "repne", "repe", "movsb", "movsw", "cmpsb", "cmpsw", "scasb",
		"scasw", "lodsb", "lodsw", "stosb", "stosw", "clc", "stc", "cli",
		"sti", "cld", "std", "cmc", "xlat", "esc", "jcxz",
		// SPC700
		"tcall", "pcall", "set1", "clr1", "tset1", "tclr1", "and1", "or1",
		"eor1", "not1", "mov1", "decw", "incw", "cmpw", "addw", "subw",
		"notc", "clrc", "setc", "clrv", "clrp", "setp", "di", "ei", "sleep",
		"stop", "brk", "nop", "xcn", "das", "daa", "mul", "div", "fast",
	}

	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// IsMnemonicWord reports whether base (lowercased, size-suffix already
// stripped) is a member of the union mnemonic set.
func IsMnemonicWord(base string) bool {
	return mnemonicSet[base]
}
