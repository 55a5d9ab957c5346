package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/changelist/asm"
	"github.com/mna/mainer"
)

// Asm implements the `asm` subcommand: assemble each source file and print
// a line giving the code range's offset and length, followed by a hex dump
// of the full backing buffer (code plus trailing string pool).
func (c *Cmd) Asm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		if err := assembleFile(stdio, path); err != nil {
			return printError(stdio, err)
		}
	}
	return nil
}

func assembleFile(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	mem, rng, err := asm.Assemble(src)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(stdio.Stdout, "%s: range (offset=%d, length=%d)\n", path, rng.Offset, rng.Length)
	fmt.Fprintf(stdio.Stdout, "%x\n", mem)
	return nil
}
