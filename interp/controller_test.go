package interp_test

import (
	"testing"

	"github.com/mna/changelist/asm"
	"github.com/mna/changelist/dom/memdom"
	"github.com/mna/changelist/interp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commit(t *testing.T, c *interp.Controller, src string) {
	t.Helper()
	mem, rng, err := asm.Assemble([]byte(src))
	require.NoError(t, err)
	require.NoError(t, c.SubmitRange(rng.Offset, rng.Length))
	require.NoError(t, c.Commit(interp.BytesMemory(mem)))
}

// scenario 1: create and attach.
func TestCreateAndAttach(t *testing.T) {
	doc := memdom.Document{}
	root := doc.CreateElement("root").(*memdom.Node)
	c := interp.NewController(root, doc)

	commit(t, c, `
strings:
	1 "div"
code:
	createElement 1
	appendChild
`)

	first := root.FirstChild().(*memdom.Node)
	require.NotNil(t, first)
	assert.Equal(t, "div", first.TagName())
}

// scenario 2: set text.
func TestSetText(t *testing.T) {
	doc := memdom.Document{}
	root := doc.CreateElement("root").(*memdom.Node)
	p := doc.CreateElement("p").(*memdom.Node)
	root.AppendChild(p)

	c := interp.NewController(root, doc)
	commit(t, c, `
strings:
	1 "hi"
code:
	pushFirstChild
	setText "hi"
	pop
`)

	assert.Equal(t, "hi", p.TextContent())
}

// scenario 3: volatile attribute.
func TestVolatileAttribute(t *testing.T) {
	doc := memdom.Document{}
	root := doc.CreateElement("root").(*memdom.Node)
	input := doc.CreateElement("input").(*memdom.Node)
	root.AppendChild(input)

	c := interp.NewController(root, doc)
	commit(t, c, `
strings:
	2 "value"
	3 "42"
code:
	pushFirstChild
	setAttribute 2 3
`)

	attr, ok := input.Attribute("value")
	require.True(t, ok)
	assert.Equal(t, "42", attr)
	prop, ok := input.Property("value")
	require.True(t, ok)
	assert.Equal(t, "42", prop)
}

// scenario 4: event payload update without re-registration.
func TestEventPayloadUpdateWithoutReregistration(t *testing.T) {
	doc := memdom.Document{}
	root := doc.CreateElement("root").(*memdom.Node)
	btn := doc.CreateElement("button").(*memdom.Node)
	root.AppendChild(btn)

	c := interp.NewController(root, doc)
	var gotA, gotB uint32
	var calls int
	require.NoError(t, c.InitEventsTrampoline(func(evt any, a, b uint32) {
		calls++
		gotA, gotB = a, b
	}))

	commit(t, c, `
strings:
	1 "click"
code:
	pushFirstChild
	newEventListener 1 7 8
`)
	commit(t, c, `
strings:
	1 "click"
code:
	pushFirstChild
	updateEventListener 1 9 10
`)

	btn.Dispatch("click")
	assert.Equal(t, 1, calls)
	assert.Equal(t, uint32(9), gotA)
	assert.Equal(t, uint32(10), gotB)
}

// scenario 5: template clone isolation.
func TestTemplateCloneIsolation(t *testing.T) {
	doc := memdom.Document{}
	root := doc.CreateElement("root").(*memdom.Node)
	c := interp.NewController(root, doc)

	commit(t, c, `
strings:
	1 "ul"
	2 "li"
code:
	createElement 1
	createElement 2
	createTextNode "a"
	appendChild
	appendChild
	saveTemplate 5
	appendChild
`)

	commit(t, c, `
code:
	pushTemplate 5
	appendChild
`)
	first := root.ChildAt(1).(*memdom.Node) // the first pushTemplate clone, appended after the original ul
	li := first.FirstChild().(*memdom.Node)
	li.SetTextContent("b")

	commit(t, c, `
code:
	pushTemplate 5
	appendChild
`)
	second := root.ChildAt(2).(*memdom.Node)
	li2 := second.FirstChild().(*memdom.Node)
	assert.Equal(t, "a", li2.TextContent())
	assert.Equal(t, "b", li.TextContent())
}

// scenario 6: remove-self-and-siblings.
func TestRemoveSelfAndNextSiblings(t *testing.T) {
	doc := memdom.Document{}
	root := doc.CreateElement("root").(*memdom.Node)
	a := doc.CreateElement("a").(*memdom.Node)
	b := doc.CreateElement("b").(*memdom.Node)
	cc := doc.CreateElement("c").(*memdom.Node)
	root.AppendChild(a)
	root.AppendChild(b)
	root.AppendChild(cc)

	c := interp.NewController(root, doc)
	commit(t, c, `
code:
	pushFirstChild
	removeSelfAndNextSiblings
`)

	assert.Equal(t, 0, root.NumChildren())
}

func TestUnmountFailsFurtherCalls(t *testing.T) {
	doc := memdom.Document{}
	root := doc.CreateElement("root").(*memdom.Node)
	c := interp.NewController(root, doc)
	c.Unmount()

	err := c.SubmitRange(0, 4)
	require.Error(t, err)
	var unmounted *interp.UnmountedError
	assert.ErrorAs(t, err, &unmounted)

	err = c.Commit(interp.BytesMemory(nil))
	require.Error(t, err)
}

func TestEmptyFrameNoOp(t *testing.T) {
	doc := memdom.Document{}
	root := doc.CreateElement("root").(*memdom.Node)
	c := interp.NewController(root, doc)
	require.NoError(t, c.Commit(interp.BytesMemory(nil)))
}

func TestProtocolViolationUndefinedOpcode(t *testing.T) {
	doc := memdom.Document{}
	root := doc.CreateElement("root").(*memdom.Node)
	c := interp.NewController(root, doc)

	// word value 255 is not a defined opcode.
	mem := []byte{255, 0, 0, 0}
	require.NoError(t, c.SubmitRange(0, 4))
	err := c.Commit(interp.BytesMemory(mem))
	require.Error(t, err)
	var perr *interp.ProtocolError
	assert.ErrorAs(t, err, &perr)
}
