package interp

// Memory is the shared-linear-memory abstraction the guest writes opcodes
// and strings into. Buffer must return a byte slice whose length does not
// shrink between two calls within the same Commit (the interpreter may read
// it more than once per commit). Any WASM runtime's memory type (a wazero
// api.Memory, a raw []byte, a syscall/js Uint8Array copy) can satisfy this
// with a one-method adapter; the interp package never imports a runtime
// package itself, keeping the guest out of scope per spec.md section 1.
type Memory interface {
	Buffer() []byte
}

// BytesMemory adapts a plain []byte into a Memory, for hosts that already
// hold the guest's linear memory as a Go slice (e.g. tests, or a runtime
// that copies memory out before a commit).
type BytesMemory []byte

func (b BytesMemory) Buffer() []byte { return b }

// Trampoline is the single host-side callback the interpreter invokes on
// every dispatched DOM event: the DOM event itself (opaque to the
// interpreter beyond spec.md's contract), plus the two opaque 32-bit
// payloads the guest associated with the (element, event type) pair via
// newEventListener/updateEventListener.
type Trampoline func(evt any, a, b uint32)
