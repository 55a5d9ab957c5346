package asm

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/mna/changelist/wire"
)

// Disassemble renders the change-list range mem[offset:offset+length] back
// into the textual form Assemble accepts (modulo the "strings:" section,
// which Disassemble never reconstructs: cached-string lifetime spans
// multiple ranges and frames, so every addCachedString simply appears inline
// in the "code:" section, in the order it executes).
func Disassemble(mem []byte, offset, length uint32) ([]byte, error) {
	if !wire.AlignedRange(offset, length) {
		return nil, fmt.Errorf("range (%d, %d) is not word-aligned", offset, length)
	}
	end := offset + length
	if int(end) > len(mem) {
		return nil, fmt.Errorf("range (%d, %d) exceeds memory of length %d", offset, length, len(mem))
	}

	var b strings.Builder
	b.WriteString("code:\n")
	i := offset
	for i < end {
		op := wire.Opcode(readWord(mem, i))
		i += 4
		if !op.Valid() {
			return nil, fmt.Errorf("byte %d: illegal opcode (%d)", i-4, op)
		}
		fmt.Fprintf(&b, "\t%s", op)
		for _, kind := range wire.Operands(op) {
			need := uint32(4)
			if kind == wire.Text {
				need = 8
			}
			if i+need > end {
				return nil, fmt.Errorf("byte %d: truncated operand for %s", i, op)
			}
			switch kind {
			case wire.Text:
				ptr := readWord(mem, i)
				i += 4
				ln := readWord(mem, i)
				i += 4
				if uint64(ptr)+uint64(ln) > uint64(len(mem)) {
					return nil, fmt.Errorf("byte %d: text operand (ptr=%d, len=%d) out of bounds", i, ptr, ln)
				}
				fmt.Fprintf(&b, " %s", strconv.Quote(string(mem[ptr:ptr+ln])))
			default:
				fmt.Fprintf(&b, " %d", readWord(mem, i))
				i += 4
			}
		}
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}

func readWord(mem []byte, i uint32) uint32 {
	return binary.LittleEndian.Uint32(mem[i : i+4])
}
