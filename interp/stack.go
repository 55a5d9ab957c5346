package interp

import "github.com/mna/changelist/dom"

// cursorEntry is one frame of the traversal cursor: the current node plus
// its known sibling index, or -1 if unknown. Modeling the cursor and the
// sibling-index side-stack as one sequence of records, rather than two
// parallel slices, is spec.md section 9's explicit recommendation.
type cursorEntry struct {
	node         dom.Node
	siblingIndex int
}

// traversalStack is the LIFO of DOM node references naming the "current"
// node (top = T in spec.md's opcode table). Most opcodes read or write its
// top.
type traversalStack struct {
	entries []cursorEntry
}

func (s *traversalStack) reset() { s.entries = s.entries[:0] }

func (s *traversalStack) empty() bool { return len(s.entries) == 0 }

// push appends node with an unknown sibling index.
func (s *traversalStack) push(n dom.Node) {
	s.entries = append(s.entries, cursorEntry{node: n, siblingIndex: -1})
}

// pushInitial pushes the container itself at frame start, with sibling
// index 0 per spec.md section 9's resolution of that open question.
func (s *traversalStack) pushInitial(n dom.Node) {
	s.entries = append(s.entries, cursorEntry{node: n, siblingIndex: 0})
}

// top returns the current node without popping it. The caller must have
// verified the stack is non-empty (spec.md's cursor invariant).
func (s *traversalStack) top() dom.Node {
	return s.entries[len(s.entries)-1].node
}

// pop removes and returns the current node.
func (s *traversalStack) pop() dom.Node {
	n := len(s.entries) - 1
	node := s.entries[n].node
	s.entries = s.entries[:n]
	return node
}

// popPushSibling replaces the top entry with n, advancing the popped entry's
// sibling index by one (or leaving it unknown, -1, if it was already
// unknown). No opcode in this wire format reads the sibling index back; it
// is maintained purely to keep the side-stack's invariant ("mirrors cursor
// lifetime", spec.md section 3) true for any future opcode that might.
func (s *traversalStack) popPushSibling(n dom.Node) {
	prev := s.entries[len(s.entries)-1].siblingIndex
	next := -1
	if prev >= 0 {
		next = prev + 1
	}
	s.entries[len(s.entries)-1] = cursorEntry{node: n, siblingIndex: next}
}
