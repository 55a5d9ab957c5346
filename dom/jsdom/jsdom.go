//go:build js && wasm

// Package jsdom is the syscall/js adapter of dom.Document/dom.Node for
// running the interpreter against a real browser document. Every method is a
// thin forward to a js.Value call; it implements no DOM semantics of its
// own, matching spec.md's framing of the interpreter's collaborators: the
// browser owns the DOM, this package only speaks to it.
package jsdom

import (
	"syscall/js"

	"github.com/mna/changelist/dom"
)

// payload keys are non-enumerable-by-convention (leading double underscore)
// expando properties, freed implicitly when the browser garbage-collects the
// element they're set on.
const payloadPrefix = "__cl_"

var document = js.Global().Get("document")

// Document wraps the global document object.
type Document struct{}

var _ dom.Document = Document{}

func (Document) CreateElement(tag string) dom.Node {
	return &Node{v: document.Call("createElement", tag)}
}

func (Document) CreateElementNS(ns, tag string) dom.Node {
	return &Node{v: document.Call("createElementNS", ns, tag)}
}

func (Document) CreateTextNode(text string) dom.Node {
	return &Node{v: document.Call("createTextNode", text)}
}

// Node wraps a js.Value referring to a DOM Node or Element.
type Node struct {
	v         js.Value
	listeners map[string]js.Func
}

var _ dom.Node = (*Node)(nil)

// Wrap adapts an externally obtained js.Value (e.g. container.firstChild of
// an existing page element) into a Node.
func Wrap(v js.Value) *Node { return &Node{v: v} }

func (n *Node) IsNil() bool { return n == nil || n.v.IsNull() || n.v.IsUndefined() }

func (n *Node) NodeType() dom.NodeType {
	if n.v.Get("nodeType").Int() == 3 {
		return dom.TextNode
	}
	return dom.ElementNode
}

func (n *Node) TagName() string {
	tag := n.v.Get("tagName")
	if tag.IsUndefined() {
		return ""
	}
	return tag.String()
}

func (n *Node) SetTextContent(s string)    { n.v.Set("textContent", s) }
func (n *Node) TextContent() string        { return n.v.Get("textContent").String() }
func (n *Node) SetAttribute(name, v string) { n.v.Call("setAttribute", name, v) }
func (n *Node) RemoveAttribute(name string) { n.v.Call("removeAttribute", name) }

func (n *Node) Attribute(name string) (string, bool) {
	if !n.v.Call("hasAttribute", name).Bool() {
		return "", false
	}
	return n.v.Call("getAttribute", name).String(), true
}

func (n *Node) SetProperty(name string, value any) { n.v.Set(name, value) }
func (n *Node) RemoveProperty(name string)          { n.v.Set(name, js.Undefined()) }

func (n *Node) ClassName() string     { return n.v.Get("className").String() }
func (n *Node) SetClassName(s string) { n.v.Set("className", s) }

func (n *Node) Parent() dom.Node      { return wrapOrNil(n.v.Get("parentNode")) }
func (n *Node) FirstChild() dom.Node  { return wrapOrNil(n.v.Get("firstChild")) }
func (n *Node) NextSibling() dom.Node { return wrapOrNil(n.v.Get("nextSibling")) }

func (n *Node) ChildAt(i int) dom.Node {
	nodes := n.v.Get("childNodes")
	if i < 0 || i >= nodes.Length() {
		return (*Node)(nil)
	}
	return wrapOrNil(nodes.Index(i))
}

func (n *Node) NumChildren() int { return n.v.Get("childNodes").Length() }

func (n *Node) AppendChild(c dom.Node)  { n.v.Call("appendChild", c.(*Node).v) }
func (n *Node) Remove()                 { n.v.Call("remove") }
func (n *Node) ReplaceWith(c dom.Node)  { n.v.Call("replaceWith", c.(*Node).v) }

func (n *Node) InsertBefore(newNode, referenceNode dom.Node) {
	rn := referenceNode.(*Node)
	rn.v.Get("parentNode").Call("insertBefore", newNode.(*Node).v, rn.v)
}

func (n *Node) Clone(deep bool) dom.Node {
	return &Node{v: n.v.Call("cloneNode", deep)}
}

func (n *Node) AddEventListener(eventType string, handler func(dom.Event)) {
	fn := js.FuncOf(func(this js.Value, args []js.Value) any {
		handler(jsEvent{target: &Node{v: this}, v: args[0]})
		return nil
	})
	if n.listeners == nil {
		n.listeners = make(map[string]js.Func)
	}
	n.listeners[eventType] = fn
	n.v.Call("addEventListener", eventType, fn)
}

func (n *Node) RemoveEventListener(eventType string) {
	if fn, ok := n.listeners[eventType]; ok {
		n.v.Call("removeEventListener", eventType, fn)
		fn.Release()
		delete(n.listeners, eventType)
	}
}

func (n *Node) SetEventPayload(eventType string, a, b uint32) {
	n.v.Set(payloadPrefix+"a_"+eventType, a)
	n.v.Set(payloadPrefix+"b_"+eventType, b)
}

func (n *Node) EventPayload(eventType string) (a, b uint32, ok bool) {
	av := n.v.Get(payloadPrefix + "a_" + eventType)
	if av.IsUndefined() {
		return 0, 0, false
	}
	bv := n.v.Get(payloadPrefix + "b_" + eventType)
	return uint32(av.Int()), uint32(bv.Int()), true
}

func (n *Node) RemoveEventPayload(eventType string) {
	n.v.Set(payloadPrefix+"a_"+eventType, js.Undefined())
	n.v.Set(payloadPrefix+"b_"+eventType, js.Undefined())
}

func wrapOrNil(v js.Value) dom.Node {
	if v.IsNull() || v.IsUndefined() {
		return (*Node)(nil)
	}
	return &Node{v: v}
}

type jsEvent struct {
	target *Node
	v      js.Value
}

func (e jsEvent) Target() dom.Node { return e.target }

// Value exposes the underlying js.Value of an Event, for callers (the
// trampoline) that need to pass the raw event object to the guest.
func (e jsEvent) Value() js.Value { return e.v }
