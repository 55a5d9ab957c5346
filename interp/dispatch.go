package interp

import (
	"encoding/binary"

	"github.com/mna/changelist/dom"
	"github.com/mna/changelist/wire"
)

// opcodeFunc is one dispatch-table entry: it consumes op's fixed operands
// starting at byte offset i (the byte right after the opcode word) and
// returns the byte offset of the next opcode. Operand encoding is fixed per
// opcode, per spec.md section 4.2: decoding the opcode uniquely determines
// how many bytes it consumes, there is no per-instruction framing.
type opcodeFunc func(c *Controller, mem []byte, i uint32) (uint32, error)

var dispatchTable = [...]opcodeFunc{
	wire.SetText:                   opSetText,
	wire.RemoveSelfAndNextSiblings: opRemoveSelfAndNextSiblings,
	wire.ReplaceWith:               opReplaceWith,
	wire.SetAttribute:              opSetAttribute,
	wire.RemoveAttribute:           opRemoveAttribute,
	wire.PushFirstChild:            opPushFirstChild,
	wire.PopPushNextSibling:        opPopPushNextSibling,
	wire.Pop:                       opPop,
	wire.AppendChild:               opAppendChild,
	wire.CreateTextNode:            opCreateTextNode,
	wire.CreateElement:             opCreateElement,
	wire.NewEventListener:          opNewEventListener,
	wire.UpdateEventListener:       opUpdateEventListener,
	wire.RemoveEventListener:       opRemoveEventListener,
	wire.AddCachedString:           opAddCachedString,
	wire.DropCachedString:          opDropCachedString,
	wire.CreateElementNS:           opCreateElementNS,
	wire.SetAttributeNS:            opSetAttributeNS,
	wire.SaveChildrenToTemporaries: opSaveChildrenToTemporaries,
	wire.PushChild:                 opPushChild,
	wire.PushTemporary:             opPushTemporary,
	wire.InsertBefore:              opInsertBefore,
	wire.PopPushReverseChild:       opPopPushReverseChild,
	wire.RemoveChild:               opRemoveChild,
	wire.SetClass:                  opSetClass,
	wire.SaveTemplate:              opSaveTemplate,
	wire.PushTemplate:              opPushTemplate,
}

// runRange interprets mem[offset:offset+length] as a contiguous sequence of
// 32-bit words, per spec.md section 4.2. offset and length must be
// word-aligned (spec.md section 3's range invariant); runRange itself
// enforces this, since SubmitRange does not.
func (c *Controller) runRange(mem []byte, offset, length uint32) error {
	if !wire.AlignedRange(offset, length) {
		return protocolErrorf("", offset, "range (%d, %d) is not a multiple of 4", offset, length)
	}
	end := offset + length
	if int(end) > len(mem) {
		return protocolErrorf("", offset, "range (%d, %d) exceeds memory of length %d", offset, length, len(mem))
	}

	i := offset
	for i < end {
		opWord := binary.LittleEndian.Uint32(mem[i:])
		op := wire.Opcode(opWord)
		opStart := i
		i += 4
		if !op.Valid() {
			return protocolErrorf("", opStart, "undefined opcode %d", opWord)
		}
		need := uint32(wire.WordCount(op)) * 4
		if i+need > end {
			return protocolErrorf(op.String(), opStart, "truncated operands: %s needs %d bytes, only %d remain in range", op, need, end-i)
		}
		next, err := dispatchTable[op](c, mem, i)
		if err != nil {
			return err
		}
		i = next
	}
	return nil
}

func readWord(mem []byte, i uint32) uint32 {
	return binary.LittleEndian.Uint32(mem[i:])
}

// readText decodes the (pointer, length) pair at byte offset i and returns
// the resulting string plus the byte offset past the pair. The pair itself
// is guaranteed in-range by runRange's upfront operand-length check; ptr and
// ln are guest-supplied and point elsewhere into mem (the string payload is
// not part of the fixed operand stream), so they still need their own bounds
// check against the full buffer before the slice expression, or a corrupt
// pair panics instead of failing the commit (spec.md section 7: a bad
// operand is a protocol violation, not a crash). Invalid UTF-8 is not an
// explicit error: Go's string conversion applies its usual
// replacement-character handling on subsequent rune iteration.
func readText(mem []byte, i uint32) (string, uint32, error) {
	ptr := readWord(mem, i)
	ln := readWord(mem, i+4)
	next := i + 8
	if uint64(ptr)+uint64(ln) > uint64(len(mem)) {
		return "", 0, protocolErrorf("", i, "text operand (ptr=%d, len=%d) exceeds memory of length %d", ptr, ln, len(mem))
	}
	return string(mem[ptr : ptr+ln]), next, nil
}

func (c *Controller) lookupString(opcodeName string, offset uint32, id uint32) (string, error) {
	s, ok := c.strings.lookup(id)
	if !ok {
		return "", protocolErrorf(opcodeName, offset, "string id %d not in cache", id)
	}
	return s, nil
}

// --- stack operations ---

func opSetText(c *Controller, mem []byte, i uint32) (uint32, error) {
	s, next, err := readText(mem, i)
	if err != nil {
		return 0, err
	}
	top, err := c.ensureTop("setText", i)
	if err != nil {
		return 0, err
	}
	top.SetTextContent(s)
	return next, nil
}

func opRemoveSelfAndNextSiblings(c *Controller, mem []byte, i uint32) (uint32, error) {
	n, err := c.ensureTop("removeSelfAndNextSiblings", i)
	if err != nil {
		return 0, err
	}
	c.stack.pop()
	if rm, ok := n.(interface{ RemoveSelfAndNextSiblings() }); ok {
		rm.RemoveSelfAndNextSiblings()
		return i, nil
	}
	// generic fallback for dom.Node implementations without the optimized
	// method (e.g. dom/jsdom): walk and remove one at a time.
	for cur := n; !dom.IsNil(cur); {
		sib := cur.NextSibling()
		cur.Remove()
		cur = sib
	}
	return i, nil
}

func opReplaceWith(c *Controller, mem []byte, i uint32) (uint32, error) {
	if len(c.stack.entries) < 2 {
		return 0, protocolErrorf("replaceWith", i, "stack underflow: need 2 operands, have %d", len(c.stack.entries))
	}
	newNode := c.stack.pop()
	oldNode := c.stack.pop()
	if dom.IsNil(oldNode) {
		return 0, protocolErrorf("replaceWith", i, "old node is the null sentinel")
	}
	if dom.IsNil(newNode) {
		return 0, protocolErrorf("replaceWith", i, "new node is the null sentinel")
	}
	oldNode.ReplaceWith(newNode)
	c.stack.push(newNode)
	return i, nil
}

func opSetAttribute(c *Controller, mem []byte, i uint32) (uint32, error) {
	nameID := readWord(mem, i)
	valueID := readWord(mem, i+4)
	next := i + 8
	top, err := c.ensureTop("setAttribute", i)
	if err != nil {
		return 0, err
	}
	name, err := c.lookupString("setAttribute", i, nameID)
	if err != nil {
		return 0, err
	}
	value, err := c.lookupString("setAttribute", i, valueID)
	if err != nil {
		return 0, err
	}
	top.SetAttribute(name, value)
	applyVolatileSet(top, name, value)
	return next, nil
}

func opRemoveAttribute(c *Controller, mem []byte, i uint32) (uint32, error) {
	nameID := readWord(mem, i)
	next := i + 4
	top, err := c.ensureTop("removeAttribute", i)
	if err != nil {
		return 0, err
	}
	name, err := c.lookupString("removeAttribute", i, nameID)
	if err != nil {
		return 0, err
	}
	top.RemoveAttribute(name)
	applyVolatileRemove(top, name)
	return next, nil
}

// applyVolatileSet mirrors a "volatile" attribute (value, checked, selected)
// into the corresponding live property, since the attribute alone does not
// reflect into the property after initial parse (spec.md section 4.3, edge
// case policies).
func applyVolatileSet(n dom.Node, name, value string) {
	switch name {
	case "value":
		n.SetProperty("value", value)
	case "checked", "selected":
		n.SetProperty(name, value != "" && value != "false")
	}
}

func applyVolatileRemove(n dom.Node, name string) {
	switch name {
	case "value":
		n.SetProperty("value", nil)
	case "checked", "selected":
		n.SetProperty(name, false)
	}
}

func opPushFirstChild(c *Controller, mem []byte, i uint32) (uint32, error) {
	top, err := c.ensureTop("pushFirstChild", i)
	if err != nil {
		return 0, err
	}
	c.stack.push(top.FirstChild())
	return i, nil
}

func opPopPushNextSibling(c *Controller, mem []byte, i uint32) (uint32, error) {
	top, err := c.ensureTop("popPushNextSibling", i)
	if err != nil {
		return 0, err
	}
	c.stack.popPushSibling(top.NextSibling())
	return i, nil
}

func opPop(c *Controller, mem []byte, i uint32) (uint32, error) {
	if c.stack.empty() {
		return 0, protocolErrorf("pop", i, "stack underflow")
	}
	c.stack.pop()
	return i, nil
}

func opAppendChild(c *Controller, mem []byte, i uint32) (uint32, error) {
	if len(c.stack.entries) < 2 {
		return 0, protocolErrorf("appendChild", i, "stack underflow: need parent and child")
	}
	child := c.stack.pop()
	if dom.IsNil(child) {
		return 0, protocolErrorf("appendChild", i, "child is the null sentinel")
	}
	parent, err := c.ensureTop("appendChild", i)
	if err != nil {
		return 0, err
	}
	parent.AppendChild(child)
	return i, nil
}

func opCreateTextNode(c *Controller, mem []byte, i uint32) (uint32, error) {
	s, next, err := readText(mem, i)
	if err != nil {
		return 0, err
	}
	c.stack.push(c.document.CreateTextNode(s))
	return next, nil
}

func opCreateElement(c *Controller, mem []byte, i uint32) (uint32, error) {
	tagID := readWord(mem, i)
	tag, err := c.lookupString("createElement", i, tagID)
	if err != nil {
		return 0, err
	}
	c.stack.push(c.document.CreateElement(tag))
	return i + 4, nil
}

func opNewEventListener(c *Controller, mem []byte, i uint32) (uint32, error) {
	typeID := readWord(mem, i)
	a := readWord(mem, i+4)
	b := readWord(mem, i+8)
	next := i + 12
	top, err := c.ensureTop("newEventListener", i)
	if err != nil {
		return 0, err
	}
	evtType, err := c.lookupString("newEventListener", i, typeID)
	if err != nil {
		return 0, err
	}
	top.SetEventPayload(evtType, a, b)
	top.AddEventListener(evtType, c.events.newListenerFor(evtType))
	return next, nil
}

func opUpdateEventListener(c *Controller, mem []byte, i uint32) (uint32, error) {
	typeID := readWord(mem, i)
	a := readWord(mem, i+4)
	b := readWord(mem, i+8)
	next := i + 12
	top, err := c.ensureTop("updateEventListener", i)
	if err != nil {
		return 0, err
	}
	evtType, err := c.lookupString("updateEventListener", i, typeID)
	if err != nil {
		return 0, err
	}
	// overwrite payloads in place; no DOM (un)registration call, which is
	// precisely what keeps this allocation- and registration-free (spec.md
	// section 4.4).
	top.SetEventPayload(evtType, a, b)
	return next, nil
}

func opRemoveEventListener(c *Controller, mem []byte, i uint32) (uint32, error) {
	typeID := readWord(mem, i)
	next := i + 4
	top, err := c.ensureTop("removeEventListener", i)
	if err != nil {
		return 0, err
	}
	evtType, err := c.lookupString("removeEventListener", i, typeID)
	if err != nil {
		return 0, err
	}
	top.RemoveEventListener(evtType)
	top.RemoveEventPayload(evtType)
	return next, nil
}

func opAddCachedString(c *Controller, mem []byte, i uint32) (uint32, error) {
	s, next, err := readText(mem, i)
	if err != nil {
		return 0, err
	}
	id := readWord(mem, next)
	c.strings.add(id, s)
	return next + 4, nil
}

func opDropCachedString(c *Controller, mem []byte, i uint32) (uint32, error) {
	id := readWord(mem, i)
	c.strings.drop(id)
	return i + 4, nil
}

func opCreateElementNS(c *Controller, mem []byte, i uint32) (uint32, error) {
	tagID := readWord(mem, i)
	nsID := readWord(mem, i+4)
	next := i + 8
	tag, err := c.lookupString("createElementNS", i, tagID)
	if err != nil {
		return 0, err
	}
	ns, err := c.lookupString("createElementNS", i, nsID)
	if err != nil {
		return 0, err
	}
	c.stack.push(c.document.CreateElementNS(ns, tag))
	return next, nil
}

// opSetAttributeNS sets an attribute with a null namespace: its two operands
// are the string ids of the attribute name and value, both looked up in the
// string cache (an unknown id is a protocol violation). No namespace operand
// is decoded, so the attribute is set exactly as setAttribute would set it,
// minus the volatile-property mirroring.
func opSetAttributeNS(c *Controller, mem []byte, i uint32) (uint32, error) {
	nameID := readWord(mem, i)
	nsOrValueID := readWord(mem, i+4)
	next := i + 8
	top, err := c.ensureTop("setAttributeNS", i)
	if err != nil {
		return 0, err
	}
	name, err := c.lookupString("setAttributeNS", i, nameID)
	if err != nil {
		return 0, err
	}
	value, err := c.lookupString("setAttributeNS", i, nsOrValueID)
	if err != nil {
		return 0, err
	}
	top.SetAttribute(name, value)
	return next, nil
}

func opSaveChildrenToTemporaries(c *Controller, mem []byte, i uint32) (uint32, error) {
	base := readWord(mem, i)
	start := readWord(mem, i+4)
	end := readWord(mem, i+8)
	next := i + 12
	top, err := c.ensureTop("saveChildrenToTemporaries", i)
	if err != nil {
		return 0, err
	}
	if end < start {
		return 0, protocolErrorf("saveChildrenToTemporaries", i, "end %d is before start %d", end, start)
	}
	for idx := start; idx < end; idx++ {
		c.temporaries.set(base+(idx-start), top.ChildAt(int(idx)))
	}
	return next, nil
}

func opPushChild(c *Controller, mem []byte, i uint32) (uint32, error) {
	n := readWord(mem, i)
	next := i + 4
	top, err := c.ensureTop("pushChild", i)
	if err != nil {
		return 0, err
	}
	c.stack.push(top.ChildAt(int(n)))
	return next, nil
}

func opPushTemporary(c *Controller, mem []byte, i uint32) (uint32, error) {
	slot := readWord(mem, i)
	next := i + 4
	n, ok := c.temporaries.get(slot)
	if !ok {
		return 0, protocolErrorf("pushTemporary", i, "temporary slot %d was never saved this frame", slot)
	}
	c.stack.push(n)
	return next, nil
}

func opInsertBefore(c *Controller, mem []byte, i uint32) (uint32, error) {
	if len(c.stack.entries) < 2 {
		return 0, protocolErrorf("insertBefore", i, "stack underflow: need before and after")
	}
	before := c.stack.pop()
	if dom.IsNil(before) {
		return 0, protocolErrorf("insertBefore", i, "before node is the null sentinel")
	}
	after := c.stack.pop()
	if dom.IsNil(after) || dom.IsNil(after.Parent()) {
		return 0, protocolErrorf("insertBefore", i, "after node has no parent")
	}
	after.Parent().InsertBefore(before, after)
	c.stack.push(before)
	return i, nil
}

// opPopPushReverseChild pops the current top, then pushes the node's new
// top's nth-from-the-end child. This is the reverse-indexing counterpart to
// pushChild, used when the guest knows a child's position counting from the
// end of the children list (spec.md section 4.3, row 22: "pop; push
// T.childNodes[T.childNodes.length − n − 1]" — T here is the top that
// remains after the pop, unlike popPushNextSibling, which reads the sibling
// of the node it replaces).
func opPopPushReverseChild(c *Controller, mem []byte, i uint32) (uint32, error) {
	n := readWord(mem, i)
	next := i + 4
	if c.stack.empty() {
		return 0, protocolErrorf("popPushReverseChild", i, "stack underflow")
	}
	c.stack.pop()
	top, err := c.ensureTop("popPushReverseChild", i)
	if err != nil {
		return 0, err
	}
	idx := top.NumChildren() - int(n) - 1
	c.stack.push(top.ChildAt(idx))
	return next, nil
}

func opRemoveChild(c *Controller, mem []byte, i uint32) (uint32, error) {
	n := readWord(mem, i)
	next := i + 4
	top, err := c.ensureTop("removeChild", i)
	if err != nil {
		return 0, err
	}
	child := top.ChildAt(int(n))
	if dom.IsNil(child) {
		return 0, protocolErrorf("removeChild", i, "no child at index %d", n)
	}
	child.Remove()
	return next, nil
}

func opSetClass(c *Controller, mem []byte, i uint32) (uint32, error) {
	nameID := readWord(mem, i)
	next := i + 4
	top, err := c.ensureTop("setClass", i)
	if err != nil {
		return 0, err
	}
	name, err := c.lookupString("setClass", i, nameID)
	if err != nil {
		return 0, err
	}
	top.SetClassName(name)
	return next, nil
}

func opSaveTemplate(c *Controller, mem []byte, i uint32) (uint32, error) {
	id := readWord(mem, i)
	next := i + 4
	top, err := c.ensureTop("saveTemplate", i)
	if err != nil {
		return 0, err
	}
	c.templates.save(id, top)
	return next, nil
}

func opPushTemplate(c *Controller, mem []byte, i uint32) (uint32, error) {
	id := readWord(mem, i)
	next := i + 4
	n, ok := c.templates.push(id)
	if !ok {
		return 0, protocolErrorf("pushTemplate", i, "template id %d was never saved", id)
	}
	c.stack.push(n)
	return next, nil
}
