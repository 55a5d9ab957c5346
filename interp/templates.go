package interp

import (
	"github.com/dolthub/swiss"
	"github.com/mna/changelist/dom"
)

// templateCache maps a guest-chosen integer id to a detached node subtree
// used as a clonable prototype across frames (spec.md section 4.3, opcodes
// saveTemplate/pushTemplate). Like the string cache, it persists across
// frames and is never implicitly evicted (spec.md section 4.5).
type templateCache struct {
	m *swiss.Map[uint32, dom.Node]
}

func newTemplateCache() *templateCache {
	return &templateCache{m: swiss.NewMap[uint32, dom.Node](8)}
}

// save deep-clones n and stores the clone under id, so that subsequent
// mutations to the live n do not mutate the saved prototype.
func (c *templateCache) save(id uint32, n dom.Node) {
	c.m.Put(id, n.Clone(true))
}

// push deep-clones the prototype stored under id, so that mutations to the
// returned node do not mutate the saved prototype, and reports whether id
// was known.
func (c *templateCache) push(id uint32) (dom.Node, bool) {
	proto, ok := c.m.Get(id)
	if !ok {
		return nil, false
	}
	return proto.Clone(true), true
}
