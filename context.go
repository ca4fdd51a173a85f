package sphincsplus

import (
	"runtime"
)

// Context is the runtime-derived companion to Params: everything that is
// computed once from (K, A, Layers, TreeHeight) and reused on every
// sign/verify call.
type Context struct {
	// Threads bounds the number of worker goroutines used to build a
	// Merkle/FORS subtree in parallel. Zero picks
	// runtime.GOMAXPROCS(0).
	Threads int

	p Params
}

// NewContext validates params and derives a Context from them.
func NewContext(p Params) (*Context, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &Context{p: p}, nil
}

// Params returns the parameters this context was built from.
func (ctx *Context) Params() Params { return ctx.p }

func (ctx *Context) workers() int {
	if ctx.Threads > 0 {
		return ctx.Threads
	}
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	return n
}
