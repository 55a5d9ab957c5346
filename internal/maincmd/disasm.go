package maincmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/mna/changelist/asm"
	"github.com/mna/changelist/wire"
	"github.com/mna/mainer"
)

// Disasm implements the `disasm` subcommand: each source file holds a hex
// dump of a change-list buffer, which is rendered back to the text assembly
// format as a single range from offset 0 to its end. Every word of the
// buffer is decoded as code, so a trailing string pool (as in the hex dump
// `asm` prints) is decoded as opcodes too.
func (c *Cmd) Disasm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		if err := disassembleFile(stdio, path); err != nil {
			return printError(stdio, err)
		}
	}
	return nil
}

func disassembleFile(stdio mainer.Stdio, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	mem, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return fmt.Errorf("%s: invalid hex dump: %w", path, err)
	}
	if !wire.AlignedRange(0, uint32(len(mem))) {
		return fmt.Errorf("%s: %d bytes is not a multiple of 4", path, len(mem))
	}
	out, err := asm.Disassemble(mem, 0, uint32(len(mem)))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	stdio.Stdout.Write(out)
	return nil
}
