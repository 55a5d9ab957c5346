package wire

import (
	"strings"
	"testing"
)

func TestOpcodeString(t *testing.T) {
	for op := Opcode(0); op <= Max; op++ {
		if opcodeNames[op] == "" {
			t.Errorf("missing string representation of opcode %d", op)
		}
		if s := op.String(); strings.Contains(s, "illegal") {
			t.Errorf("invalid string representation of opcode %d", op)
		}
	}
}

func TestOpcodeNumbering(t *testing.T) {
	// Pinned to spec.md section 4.3's literal table; a change here is a wire
	// break, not a refactor.
	want := []string{
		"setText", "removeSelfAndNextSiblings", "replaceWith", "setAttribute",
		"removeAttribute", "pushFirstChild", "popPushNextSibling", "pop",
		"appendChild", "createTextNode", "createElement", "newEventListener",
		"updateEventListener", "removeEventListener", "addCachedString",
		"dropCachedString", "createElementNS", "setAttributeNS",
		"saveChildrenToTemporaries", "pushChild", "pushTemporary", "insertBefore",
		"popPushReverseChild", "removeChild", "setClass", "saveTemplate",
		"pushTemplate",
	}
	if len(want) != int(Max)+1 {
		t.Fatalf("test fixture out of sync: want %d opcodes, Max implies %d", len(want), int(Max)+1)
	}
	for i, name := range want {
		if got := Opcode(i).String(); got != name {
			t.Errorf("opcode %d: want %q, got %q", i, name, got)
		}
		op, ok := Lookup(name)
		if !ok || int(op) != i {
			t.Errorf("Lookup(%q) = %d, %v; want %d, true", name, op, ok, i)
		}
	}
}

func TestOperandsWordCount(t *testing.T) {
	tests := []struct {
		op   Opcode
		want int
	}{
		{Pop, 0},
		{AppendChild, 0},
		{SetAttribute, 2},
		{NewEventListener, 3},
		{AddCachedString, 3}, // Text (2 words) + id
		{DropCachedString, 1},
		{SaveChildrenToTemporaries, 3},
		{PushChild, 1},
	}
	for _, tt := range tests {
		if got := WordCount(tt.op); got != tt.want {
			t.Errorf("WordCount(%s) = %d, want %d", tt.op, got, tt.want)
		}
	}
}

func TestAlignedRange(t *testing.T) {
	if !AlignedRange(0, 8) {
		t.Error("0,8 should be aligned")
	}
	if AlignedRange(1, 8) {
		t.Error("1,8 should not be aligned")
	}
	if AlignedRange(4, 5) {
		t.Error("4,5 should not be aligned")
	}
}
