package interp

import "github.com/dolthub/swiss"

// stringCache interns short strings keyed by guest-chosen integer ids. It is
// a process-lifetime mapping: the guest is responsible for refcounting and
// emitting addCachedString/dropCachedString, and the cache never evicts on
// its own (spec.md section 4.5). A swiss.Map is used for the same reason the
// teacher's machine.Map uses one: dense integer keys, frequent lookups, and
// occasional insert/delete.
type stringCache struct {
	m *swiss.Map[uint32, string]
}

func newStringCache() *stringCache {
	return &stringCache{m: swiss.NewMap[uint32, string](16)}
}

func (c *stringCache) add(id uint32, s string) { c.m.Put(id, s) }

func (c *stringCache) drop(id uint32) { c.m.Delete(id) }

// lookup returns the string cached under id and whether it was found. An
// opcode referencing an id not present here is a protocol violation (spec.md
// section 7 lists "unknown string id" among the fail-fast cases); the
// dispatch table turns a !found result into a ProtocolError rather than the
// more permissive "undefined value" behavior spec.md section 4.5 allows as
// an alternative, so that malformed streams fail loudly instead of producing
// a DOM mutation with a blank name or value.
func (c *stringCache) lookup(id uint32) (string, bool) {
	return c.m.Get(id)
}
