package asm_test

import (
	"encoding/binary"
	"testing"

	"github.com/mna/changelist/asm"
	"github.com/mna/changelist/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleCreateAndAttach(t *testing.T) {
	src := `
strings:
	1 "div"
code:
	createElement 1
	appendChild
`
	mem, rng, err := asm.Assemble([]byte(src))
	require.NoError(t, err)
	require.True(t, rng.Length%4 == 0)

	// decode manually: addCachedString(text "div", 1), createElement(1), appendChild
	assert.Equal(t, wire.AddCachedString, opAt(mem, 0))
	assert.Equal(t, wire.CreateElement, opAt(mem, 16))
	assert.Equal(t, wire.AppendChild, opAt(mem, 24))
	assert.Equal(t, uint32(28), rng.Length)
}

func TestAssembleInvalidOpcode(t *testing.T) {
	_, _, err := asm.Assemble([]byte("code:\n\tbogus\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown opcode")
}

func TestAssembleWrongOperandCount(t *testing.T) {
	_, _, err := asm.Assemble([]byte("code:\n\tsetAttribute 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enough operands")
}

func TestRoundTrip(t *testing.T) {
	src := `
strings:
	1 "div"
	2 "class"
code:
	createElement 1
	setAttribute 1 2
	appendChild
`
	mem, rng, err := asm.Assemble([]byte(src))
	require.NoError(t, err)

	text, err := asm.Disassemble(mem, rng.Offset, rng.Length)
	require.NoError(t, err)
	assert.Contains(t, string(text), "addCachedString")
	assert.Contains(t, string(text), `"div"`)
	assert.Contains(t, string(text), "createElement")
	assert.Contains(t, string(text), "appendChild")
}

func opAt(mem []byte, off uint32) wire.Opcode {
	return wire.Opcode(binary.LittleEndian.Uint32(mem[off:]))
}

func TestDisassembleTruncatedTextOperandIsError(t *testing.T) {
	// createTextNode's Text operand needs two words (pointer, length); only
	// the pointer word is present before the range ends.
	mem := make([]byte, 8)
	binary.LittleEndian.PutUint32(mem[0:], uint32(wire.CreateTextNode))
	binary.LittleEndian.PutUint32(mem[4:], 0)

	_, err := asm.Disassemble(mem, 0, 8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated operand")
}

func TestDisassembleCorruptTextOperandIsError(t *testing.T) {
	mem := make([]byte, 12)
	binary.LittleEndian.PutUint32(mem[0:], uint32(wire.CreateTextNode))
	binary.LittleEndian.PutUint32(mem[4:], 1000) // pointer far past len(mem)
	binary.LittleEndian.PutUint32(mem[8:], 5)    // length

	_, err := asm.Disassemble(mem, 0, 12)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of bounds")
}
