package master

import "time"

// DefaultYieldQuantum is the cooperative delay between two flag polls.
const DefaultYieldQuantum = 50 * time.Millisecond

// Yielder hands the processor to other work between two polls of a flag.
type Yielder interface {
	Yield()
}

// YieldFunc adapts a plain function to Yielder.
type YieldFunc func()

func (f YieldFunc) Yield() {
	f()
}

// Sleep yields by sleeping for a fixed quantum.
type Sleep time.Duration

func (s Sleep) Yield() {
	time.Sleep(time.Duration(s))
}
