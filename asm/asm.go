// Package asm implements a human-readable assembler/disassembler pair for
// change-list byte streams, adapted from the teacher's compiler assembly
// format (lang/compiler/asm.go) and retargeted at the wire package's 27 DOM
// opcodes. It exists purely to support testing the interpreter without
// shipping an actual WASM guest, and to back the changelist-asm CLI's `asm`
// and `disasm` subcommands.
//
// The format looks like this (indentation is arbitrary, section order is
// not):
//
//	strings:                  # optional, list of "id text" pairs; each
//	  1 "div"                 # becomes an addCachedString opcode at the
//	  2 "class"               # front of the stream
//	code:                     # required, list of instructions
//	  createElement 1
//	  appendChild
//
// Word operands are plain decimal integers; stringId operands reference
// either a "strings:" entry or a number; text operands (setText,
// createTextNode, and the inline text half of addCachedString) are a quoted
// string literal.
package asm

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/mna/changelist/wire"
)

// Range is a (offset, length) submission envelope into a Memory buffer, both
// always multiples of 4 per spec.md's range-alignment invariant.
type Range struct {
	Offset, Length uint32
}

// Assemble compiles the textual form src into a linear-memory buffer: the
// code section's words, followed by a trailing pool holding the bytes any
// Text operand points into (mirroring how a real guest keeps string data
// elsewhere in the same shared memory). The returned Range addresses only
// the code section and is what callers pass to
// Controller.SubmitRange/Commit; the pool is never submitted as a range of
// its own, only referenced by pointer.
func Assemble(src []byte) ([]byte, Range, error) {
	a := &assembler{s: bufio.NewScanner(bytes.NewReader(src))}
	a.run()
	return a.out, Range{Offset: 0, Length: a.codeLen}, a.err
}

type assembler struct {
	s       *bufio.Scanner
	out     []byte
	pool    []byte
	fixups  []fixup
	err     error
	line    int
	codeLen uint32
}

func (a *assembler) run() {
	section := ""
	for a.err == nil && a.s.Scan() {
		a.line++
		fields := strings.Fields(a.s.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if fields[0] == "strings:" || fields[0] == "code:" {
			section = fields[0]
			continue
		}
		switch section {
		case "strings:":
			a.stringEntry(fields)
		case "code:":
			a.instruction(fields)
		default:
			a.errorf("instruction or string entry outside of a section: %s", strings.Join(fields, " "))
		}
	}
	if a.err == nil {
		if err := a.s.Err(); err != nil {
			a.err = err
		}
	}
	if a.err == nil {
		a.finish()
	}
}

// finish appends the string pool after the code, padded to a word boundary,
// matching how a real guest lays out strings elsewhere in the same linear
// memory.
func (a *assembler) finish() {
	for len(a.out)%4 != 0 {
		a.out = append(a.out, 0)
	}
	a.codeLen = uint32(len(a.out))
	poolStart := len(a.out)
	a.out = append(a.out, a.pool...)
	for len(a.out)%4 != 0 {
		a.out = append(a.out, 0)
	}
	for _, f := range a.fixups {
		binary.LittleEndian.PutUint32(a.out[f.wordIndex:], uint32(poolStart+f.poolOffset))
	}
}

func (a *assembler) stringEntry(fields []string) {
	if len(fields) != 2 {
		a.errorf("invalid string entry, want 'id \"text\"', got: %s", strings.Join(fields, " "))
		return
	}
	id := a.word(fields[0])
	text := a.quoted(fields[1])
	if a.err != nil {
		return
	}
	a.emitWord(uint32(wire.AddCachedString))
	a.emitText(text)
	a.emitWord(id)
}

func (a *assembler) instruction(fields []string) {
	if len(fields) == 0 {
		return
	}
	op, ok := wire.Lookup(fields[0])
	if !ok {
		a.errorf("unknown opcode: %s", fields[0])
		return
	}
	operands := wire.Operands(op)
	args := fields[1:]
	a.emitWord(uint32(op))
	argIdx := 0
	for _, kind := range operands {
		if argIdx >= len(args) {
			a.errorf("%s: not enough operands, want %d", fields[0], len(operands))
			return
		}
		switch kind {
		case wire.Text:
			a.emitText(a.quoted(args[argIdx]))
			argIdx++
		default:
			a.emitWord(a.word(args[argIdx]))
			argIdx++
		}
	}
	if a.err == nil && argIdx != len(args) {
		a.errorf("%s: too many operands, want %d, got %d", fields[0], len(operands), len(args))
	}
}

func (a *assembler) emitWord(w uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], w)
	a.out = append(a.out, b[:]...)
}

// emitText appends a (pointer, length) pair pointing into the trailing
// string pool, which is placed right after the code section by finish.
func (a *assembler) emitText(s string) {
	ptr := len(a.pool)
	a.pool = append(a.pool, s...)
	// the pool's final position is only known after finish pads the code
	// section, so record a placeholder and patch it in finish via a deferred
	// fixup list instead of guessing the offset up front.
	a.fixups = append(a.fixups, fixup{wordIndex: len(a.out), poolOffset: ptr, length: len(s)})
	a.emitWord(0) // pointer placeholder
	a.emitWord(uint32(len(s)))
}

type fixup struct {
	wordIndex  int // byte index of the pointer word in a.out
	poolOffset int
	length     int
}

func (a *assembler) word(s string) uint32 {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		a.errorf("invalid integer operand %q: %s", s, err)
		return 0
	}
	return uint32(n)
}

func (a *assembler) quoted(s string) string {
	unq, err := strconv.Unquote(s)
	if err != nil {
		a.errorf("invalid quoted string %q: %s", s, err)
		return ""
	}
	return unq
}

func (a *assembler) errorf(format string, args ...any) {
	if a.err == nil {
		a.err = fmt.Errorf("line %d: %s", a.line, fmt.Sprintf(format, args...))
	}
}
