package interp

import (
	"github.com/dolthub/swiss"
	"github.com/mna/changelist/dom"
)

// temporaries is the sparse integer-indexed slot array holding node
// references extracted during a traversal for later reuse within the same
// frame (spec.md section 4.3, opcodes saveChildrenToTemporaries/
// pushTemporary). A swiss.Map is used rather than a slice because the slot
// indices a guest chooses are sparse and frame-scoped, not a dense 0..n
// range worth pre-sizing.
type temporaries struct {
	m *swiss.Map[uint32, dom.Node]
}

func newTemporaries() *temporaries {
	return &temporaries{m: swiss.NewMap[uint32, dom.Node](8)}
}

func (t *temporaries) set(slot uint32, n dom.Node) { t.m.Put(slot, n) }

func (t *temporaries) get(slot uint32) (dom.Node, bool) { return t.m.Get(slot) }

// reset clears all temporaries; called at frame end (spec.md section 3:
// temporaries are written during a frame, cleared at frame end).
func (t *temporaries) reset() {
	t.m = swiss.NewMap[uint32, dom.Node](8)
}
