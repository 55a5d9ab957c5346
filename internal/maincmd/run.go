package maincmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mna/changelist/asm"
	"github.com/mna/changelist/dom"
	"github.com/mna/changelist/dom/memdom"
	"github.com/mna/changelist/interp"
	"github.com/mna/mainer"
)

// Run implements the `run` subcommand: assemble each source file, apply it
// in a single commit against a fresh in-memory document rooted at an empty
// <root> element, and print the resulting tree. It is a dry-run tool for
// exercising a change-list without a browser or a WASM guest.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		if err := runFile(stdio, path); err != nil {
			return printError(stdio, err)
		}
	}
	return nil
}

func runFile(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	mem, rng, err := asm.Assemble(src)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	doc := memdom.Document{}
	root := doc.CreateElement("root")
	ctrl := interp.NewController(root, doc)
	if err := ctrl.SubmitRange(rng.Offset, rng.Length); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := ctrl.Commit(interp.BytesMemory(mem)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Fprintf(stdio.Stdout, "%s:\n", path)
	printTree(stdio.Stdout, root, 0)
	return nil
}

func printTree(w io.Writer, n dom.Node, depth int) {
	if dom.IsNil(n) {
		return
	}
	indent := strings.Repeat("  ", depth)
	switch n.NodeType() {
	case dom.TextNode:
		fmt.Fprintf(w, "%s%q\n", indent, n.TextContent())
	default:
		tag := n.TagName()
		if class := n.ClassName(); class != "" {
			tag += "." + class
		}
		fmt.Fprintf(w, "%s<%s>\n", indent, tag)
	}
	for i := 0; i < n.NumChildren(); i++ {
		printTree(w, n.ChildAt(i), depth+1)
	}
}
