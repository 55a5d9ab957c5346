// Package interp implements the change-list interpreter: a dispatch loop
// over a binary opcode stream (package wire) that mutates a live document
// (package dom). It is the host side of spec.md's guest/host contract.
package interp

import (
	"github.com/mna/changelist/dom"
)

// pendingRange is one (offset, length) submission, queued between frames.
type pendingRange struct {
	offset, length uint32
}

// Controller is the frame controller of spec.md section 4.1: it accepts
// range submissions, runs the dispatch loop over each range in submission
// order on Commit, and resets per-frame state. A Controller is not safe for
// concurrent use; spec.md section 5 assumes a single cooperative caller.
type Controller struct {
	container dom.Node
	document  dom.Document

	stack       traversalStack
	strings     *stringCache
	temporaries *temporaries
	templates   *templateCache
	events      eventDispatcher

	ranges []pendingRange

	unmounted bool
}

// NewController constructs an interpreter rooted at container: the DOM
// element naming the managed subtree (spec.md section 3). document is used
// to create new elements and text nodes (createElement, createElementNS,
// createTextNode); it is typically the owner document of container.
func NewController(container dom.Node, document dom.Document) *Controller {
	return &Controller{
		container:   container,
		document:    document,
		strings:     newStringCache(),
		temporaries: newTemporaries(),
		templates:   newTemplateCache(),
	}
}

// SubmitRange appends a (offset, length) pair to the pending ranges for the
// next Commit. A zero-length range is dropped here without being queued; no
// other validation happens here, and a misaligned range is only rejected
// once Commit actually runs the dispatch loop over it.
func (c *Controller) SubmitRange(offset, length uint32) error {
	if c.unmounted {
		return &UnmountedError{Call: "SubmitRange"}
	}
	if length == 0 {
		return nil
	}
	c.ranges = append(c.ranges, pendingRange{offset: offset, length: length})
	return nil
}

// Commit applies every pending range, in submission order, against mem. If
// there are no pending ranges, Commit returns immediately without touching
// the traversal cursor. On normal completion, the stack, pending ranges and
// temporaries are cleared; the string and template caches persist. If a
// range's dispatch loop returns an error, Commit stops immediately, leaves
// all per-frame state as-is, and returns the error: per spec.md section 4.1,
// the frame is then considered corrupt and the host should call Unmount.
func (c *Controller) Commit(mem Memory) error {
	if c.unmounted {
		return &UnmountedError{Call: "Commit"}
	}
	if len(c.ranges) == 0 {
		return nil
	}

	// The cursor starts at the container itself, not the container's first
	// child: the worked examples (spec.md section 8, scenarios 1 and 2) only
	// balance if the very first pushFirstChild or appendChild in a frame reads
	// the container as T, since an empty container's firstChild is the null
	// sentinel and would otherwise make the create-and-attach scenario fail
	// immediately (see DESIGN.md).
	c.stack.pushInitial(c.container)
	buf := mem.Buffer()
	for _, rng := range c.ranges {
		if err := c.runRange(buf, rng.offset, rng.length); err != nil {
			return err
		}
	}

	c.stack.reset()
	c.ranges = c.ranges[:0]
	c.temporaries.reset()
	return nil
}

// Unmount marks the controller unmounted so further public calls, and any
// lingering event firing, fail (spec.md section 4.1). It is not idempotent
// in the sense of being safe to call twice for different reasons, but
// calling it more than once is harmless.
func (c *Controller) Unmount() {
	c.unmounted = true
	c.events.unmount()
	c.container = nil
	c.document = nil
}

// InitEventsTrampoline binds the single shared event handler's callback
// (spec.md section 4.1). It may be called again to rebind, e.g. after a
// hot-reload of the guest module.
func (c *Controller) InitEventsTrampoline(fn Trampoline) error {
	if c.unmounted {
		return &UnmountedError{Call: "InitEventsTrampoline"}
	}
	c.events.bindTrampoline(fn)
	return nil
}

// ensureTop is a convenience wrapper opcode handlers use to read the current
// node, translating an empty stack into the ProtocolError spec.md section 3
// calls for ("the traversal cursor is non-empty at the start of every opcode
// that reads the top").
func (c *Controller) ensureTop(opcodeName string, offset uint32) (dom.Node, error) {
	if c.stack.empty() {
		return nil, protocolErrorf(opcodeName, offset, "traversal cursor is empty")
	}
	top := c.stack.top()
	if dom.IsNil(top) {
		return nil, protocolErrorf(opcodeName, offset, "traversal cursor top is the null sentinel")
	}
	return top, nil
}
