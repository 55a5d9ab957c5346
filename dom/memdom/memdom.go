// Package memdom is an in-memory dom.Document/dom.Node implementation. It
// backs every test in this repository, since there is no portable way to
// drive a real browser document from `go test`; production code targeting an
// actual browser uses dom/jsdom instead, behind the same dom.Node interface.
package memdom

import "github.com/mna/changelist/dom"

// Document creates detached nodes; it holds no state of its own.
type Document struct{}

var _ dom.Document = Document{}

func (Document) CreateElement(tag string) dom.Node {
	return &Node{typ: dom.ElementNode, tag: tag}
}

func (Document) CreateElementNS(ns, tag string) dom.Node {
	return &Node{typ: dom.ElementNode, tag: tag, ns: ns}
}

func (Document) CreateTextNode(text string) dom.Node {
	return &Node{typ: dom.TextNode, text: text}
}

type eventPayload struct{ a, b uint32 }

// Node is a tree node: an element (with attributes, properties, class name,
// children and event annotations) or a text node (with text content only).
type Node struct {
	typ      dom.NodeType
	tag, ns  string
	text     string
	class    string
	attrs    map[string]string
	props    map[string]any
	children []*Node
	parent   *Node

	listeners map[string]func(dom.Event)
	payloads  map[string]eventPayload
}

var _ dom.Node = (*Node)(nil)

// IsNil lets dom.IsNil detect a typed nil *Node boxed in a dom.Node
// interface, which is how FirstChild/NextSibling/Parent report "no node."
func (n *Node) IsNil() bool { return n == nil }

func (n *Node) NodeType() dom.NodeType { return n.typ }
func (n *Node) TagName() string        { return n.tag }

func (n *Node) SetTextContent(s string) {
	n.text = s
	n.children = nil
}
func (n *Node) TextContent() string {
	s := n.text
	for _, c := range n.children {
		s += c.TextContent()
	}
	return s
}

func (n *Node) SetAttribute(name, value string) {
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[name] = value
}

func (n *Node) RemoveAttribute(name string) { delete(n.attrs, name) }

func (n *Node) Attribute(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

func (n *Node) SetProperty(name string, value any) {
	if n.props == nil {
		n.props = make(map[string]any)
	}
	n.props[name] = value
}

func (n *Node) RemoveProperty(name string) { delete(n.props, name) }

// Property is a memdom-only accessor used by tests to assert on volatile
// property reflection (spec section 8, scenario 3).
func (n *Node) Property(name string) (any, bool) {
	v, ok := n.props[name]
	return v, ok
}

func (n *Node) ClassName() string     { return n.class }
func (n *Node) SetClassName(s string) { n.class = s }

func (n *Node) Parent() dom.Node {
	if n.parent == nil {
		return (*Node)(nil)
	}
	return n.parent
}

func (n *Node) FirstChild() dom.Node {
	if len(n.children) == 0 {
		return (*Node)(nil)
	}
	return n.children[0]
}

func (n *Node) NextSibling() dom.Node {
	if n.parent == nil {
		return (*Node)(nil)
	}
	for i, c := range n.parent.children {
		if c == n {
			if i+1 < len(n.parent.children) {
				return n.parent.children[i+1]
			}
			return (*Node)(nil)
		}
	}
	return (*Node)(nil)
}

func (n *Node) ChildAt(i int) dom.Node {
	if i < 0 || i >= len(n.children) {
		return (*Node)(nil)
	}
	return n.children[i]
}

func (n *Node) NumChildren() int { return len(n.children) }

func (n *Node) AppendChild(c dom.Node) {
	cn := c.(*Node)
	cn.detach()
	cn.parent = n
	n.children = append(n.children, cn)
}

func (n *Node) InsertBefore(newNode, referenceNode dom.Node) {
	nn := newNode.(*Node)
	rn := referenceNode.(*Node)
	parent := rn.parent
	if parent == nil {
		return
	}
	nn.detach()
	for i, c := range parent.children {
		if c == rn {
			parent.children = append(parent.children[:i:i], append([]*Node{nn}, parent.children[i:]...)...)
			nn.parent = parent
			return
		}
	}
}

func (n *Node) Remove() { n.detach() }

func (n *Node) detach() {
	if n.parent == nil {
		return
	}
	siblings := n.parent.children
	for i, c := range siblings {
		if c == n {
			n.parent.children = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	n.parent = nil
}

func (n *Node) ReplaceWith(newNode dom.Node) {
	nn := newNode.(*Node)
	parent := n.parent
	if parent == nil {
		return
	}
	nn.detach()
	for i, c := range parent.children {
		if c == n {
			parent.children[i] = nn
			nn.parent = parent
			break
		}
	}
	n.parent = nil
}

func (n *Node) Clone(deep bool) dom.Node {
	clone := &Node{typ: n.typ, tag: n.tag, ns: n.ns, text: n.text, class: n.class}
	if n.attrs != nil {
		clone.attrs = make(map[string]string, len(n.attrs))
		for k, v := range n.attrs {
			clone.attrs[k] = v
		}
	}
	if n.props != nil {
		clone.props = make(map[string]any, len(n.props))
		for k, v := range n.props {
			clone.props[k] = v
		}
	}
	if deep {
		for _, c := range n.children {
			child := c.Clone(true).(*Node)
			child.parent = clone
			clone.children = append(clone.children, child)
		}
	}
	return clone
}

// RemoveSelfAndNextSiblings implements opcode 1's semantics directly on the
// tree, since it needs to remove a contiguous run rather than a single node.
func (n *Node) RemoveSelfAndNextSiblings() {
	parent := n.parent
	if parent == nil {
		return
	}
	for i, c := range parent.children {
		if c == n {
			for _, removed := range parent.children[i:] {
				removed.parent = nil
			}
			parent.children = parent.children[:i:i]
			return
		}
	}
}

func (n *Node) AddEventListener(eventType string, handler func(dom.Event)) {
	if n.listeners == nil {
		n.listeners = make(map[string]func(dom.Event))
	}
	n.listeners[eventType] = handler
}

func (n *Node) RemoveEventListener(eventType string) { delete(n.listeners, eventType) }

func (n *Node) SetEventPayload(eventType string, a, b uint32) {
	if n.payloads == nil {
		n.payloads = make(map[string]eventPayload)
	}
	n.payloads[eventType] = eventPayload{a: a, b: b}
}

func (n *Node) EventPayload(eventType string) (a, b uint32, ok bool) {
	p, ok := n.payloads[eventType]
	return p.a, p.b, ok
}

func (n *Node) RemoveEventPayload(eventType string) { delete(n.payloads, eventType) }

// Dispatch simulates the DOM dispatching eventType at n: it invokes the
// listener registered on n, if any, with a memEvent whose Target is n. Tests
// use this to exercise the interpreter's shared event handler without a real
// browser (spec section 8, scenario 4).
func (n *Node) Dispatch(eventType string) {
	if h, ok := n.listeners[eventType]; ok {
		h(memEvent{target: n})
	}
}

type memEvent struct{ target *Node }

func (e memEvent) Target() dom.Node { return e.target }
