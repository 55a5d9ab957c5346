// Package dom declares the capability interfaces the interpreter needs from
// a live document: enough to create, mutate and tear down nodes, and to
// attach a single shared event listener per (element, event type). It does
// not implement a document itself; see dom/memdom for the in-memory
// implementation used by tests and dom/jsdom for the syscall/js adapter used
// when running in a browser.
package dom

// NodeType distinguishes the handful of node kinds the wire protocol can
// produce or address.
type NodeType int

const (
	ElementNode NodeType = iota
	TextNode
)

// Event is the minimal event surface the interpreter's shared handler reads
// before forwarding to the trampoline. Implementations wrap whatever their
// backing representation uses (a synthetic struct for memdom, a js.Value for
// jsdom).
type Event interface {
	// Target returns the node the event handler was registered on (not
	// necessarily the node the event originated at; the interpreter only
	// ever needs the registration target, since that is where the payload
	// pair lives).
	Target() Node
}

// Node is a single node in the managed subtree. Nil is a valid Node value
// (the "null sentinel" of spec section 4.3's pushFirstChild edge case);
// implementations must accept a nil receiver for read-only methods used by
// the interpreter to detect it (see IsNil).
type Node interface {
	NodeType() NodeType
	TagName() string

	SetTextContent(s string)
	TextContent() string

	SetAttribute(name, value string)
	RemoveAttribute(name string)
	Attribute(name string) (string, bool)

	// SetProperty and RemoveProperty manipulate the live JS-style property of
	// a node, distinct from its attribute, for volatile attributes (value,
	// checked, selected) whose attribute does not reflect into the property
	// after initial parse.
	SetProperty(name string, value any)
	RemoveProperty(name string)

	ClassName() string
	SetClassName(s string)

	Parent() Node
	FirstChild() Node
	NextSibling() Node
	ChildAt(i int) Node
	NumChildren() int

	AppendChild(c Node)
	InsertBefore(newNode, referenceNode Node)
	Remove()
	ReplaceWith(newNode Node)

	// Clone returns a detached copy of the node. When deep is true, children
	// are cloned recursively; event annotations and templates never travel
	// with a deep clone (a freshly cloned node starts with none).
	Clone(deep bool) Node

	// AddEventListener registers handler as the (sole) listener for
	// eventType; the interpreter calls this at most once per (node,
	// eventType) pair, per spec section 4.4.
	AddEventListener(eventType string, handler func(Event))
	RemoveEventListener(eventType string)

	// SetEventPayload and EventPayload hold the two opaque 32-bit payloads
	// the guest associates with an event type; they are the per-element side
	// table of spec section 9's Design Notes, and are freed implicitly when
	// the node itself becomes unreachable.
	SetEventPayload(eventType string, a, b uint32)
	EventPayload(eventType string) (a, b uint32, ok bool)
	RemoveEventPayload(eventType string)
}

// Document creates nodes. The interpreter never mutates a Document directly
// beyond node creation.
type Document interface {
	CreateElement(tag string) Node
	CreateElementNS(ns, tag string) Node
	CreateTextNode(text string) Node
}

// IsNil reports whether n is the null sentinel: either the Go nil interface
// value, or a typed nil pointer boxed in the interface (the common case when
// FirstChild/NextSibling return a nil *node from a concrete implementation).
func IsNil(n Node) bool {
	if n == nil {
		return true
	}
	if nn, ok := n.(interface{ IsNil() bool }); ok {
		return nn.IsNil()
	}
	return false
}
