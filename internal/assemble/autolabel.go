package assemble

import (
	"fmt"
	"sort"

	"github.com/TheAnsarya/poppy-sub004/internal/ast"
	"github.com/TheAnsarya/poppy-sub004/internal/diag"
	"github.com/TheAnsarya/poppy-sub004/internal/eval"
	"github.com/TheAnsarya/poppy-sub004/internal/source"
	"github.com/TheAnsarya/poppy-sub004/internal/symtab"
)

// callMnemonics are the control-transfer instructions whose targets the
// auto-labeling heuristic collects, across every supported family.
var callMnemonics = map[string]bool{
	"jsr": true, "jmp": true, "jsl": true, "jml": true,
	"bpl": true, "bmi": true, "bvc": true, "bvs": true, "bcc": true,
	"bcs": true, "bne": true, "beq": true, "bra": true, "brl": true,
	"jr": true, "jp": true, "call": true, "djnz": true,
	"bsr": true, "bhi": true, "bls": true, "bge": true, "blt": true,
	"bgt": true, "ble": true,
	"b": true, "bl": true,
}

// applyAutoLabels scans the assembled statements for control-transfer
// targets and defines a synthetic "loop_<n>" label at every target
// address that no user label already names, numbered in address order.
func applyAutoLabels(stmts []*ast.Stmt, st *symtab.Table) {
	named := map[int64]bool{}
	for _, sym := range st.All() {
		if sym.Kind == symtab.KindLabel {
			named[sym.Value] = true
		}
	}

	targets := map[int64]bool{}
	collectTargets(stmts, st, targets)

	var addrs []int64
	for addr := range targets {
		if !named[addr] {
			addrs = append(addrs, addr)
		}
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	for i, addr := range addrs {
		st.DefineLabel(fmt.Sprintf("loop_%d", i), addr, symtab.SpaceCode, source.Location{}, false)
	}
}

func collectTargets(stmts []*ast.Stmt, st *symtab.Table, targets map[int64]bool) {
	// Errors from this speculative re-evaluation never reach the user;
	// an operand that doesn't fold is simply not a labelable target.
	scratch := &diag.Bag{}
	for _, s := range stmts {
		switch s.Kind {
		case ast.StScope, ast.StProc:
			collectTargets(s.BlockBody, st, targets)
		case ast.StInstruction:
			if !callMnemonics[s.Inst.Mnemonic] || s.Inst.Operand == nil {
				continue
			}
			if s.Inst.Operand.Kind == ast.ExprAnon {
				continue
			}
			res := eval.Eval(s.Inst.Operand, &eval.Env{Symtab: st, PC: s.PC, Bag: scratch, Mode: eval.ConstantOnly})
			if res.Resolved && !res.IsString {
				targets[res.Value] = true
			}
		}
	}
}
