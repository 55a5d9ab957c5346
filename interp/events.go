package interp

import "github.com/mna/changelist/dom"

// eventDispatcher owns the single shared handler installed for every
// (element, event type) pair, per spec.md section 4.4. The handler never
// closes over per-listener state: it reads the (a, b) payload pair from the
// node it was attached to (dom.Event.Target, standing in for "this" inside a
// DOM listener) at dispatch time, which is what makes opcode 12
// (updateEventListener) allocation-free and registration-free.
type eventDispatcher struct {
	trampoline Trampoline
	unmounted  bool
}

// bindTrampoline implements initEventsTrampoline: it binds the single
// callback the handler forwards events to.
func (d *eventDispatcher) bindTrampoline(fn Trampoline) {
	d.trampoline = fn
	d.unmounted = false
}

// unmount marks the trampoline unmounted so any lingering event firing
// fails, per spec.md section 4.1.
func (d *eventDispatcher) unmount() { d.unmounted = true }

// newListenerFor returns the closure registered with
// dom.Node.AddEventListener for a specific event type: it resolves the
// (a, b) payload from the dispatch target at fire time and forwards to the
// trampoline, exactly as spec.md section 4.4 describes.
func (d *eventDispatcher) newListenerFor(eventType string) func(dom.Event) {
	return func(evt dom.Event) {
		if d.unmounted {
			panic(&UnmountedError{Call: "event handler"})
		}
		target := evt.Target()
		a, b, ok := target.EventPayload(eventType)
		if !ok {
			// the annotation was removed from under the still-registered
			// listener; nothing to forward.
			return
		}
		if d.trampoline != nil {
			d.trampoline(evt, a, b)
		}
	}
}
