package executor

// Middleware wraps an executor (logging, guild checks, cooldowns). The
// wrapped value is still an Executor.
type Middleware func(Executor) Executor

// Apply applies middlewares in order; the first in the list is the innermost.
func Apply(e Executor, mws ...Middleware) Executor {
	for _, mw := range mws {
		e = mw(e)
	}
	return e
}

// Unwrappable is implemented by wrapped executors so capability checks can
// reach the executor underneath.
type Unwrappable interface {
	Executor
	Unwrap() Executor
}

// Wrapped replaces Execute and delegates everything else to the embedded
// executor.
type Wrapped struct {
	Executor
	Run func(ctx *Context) error
}

func (w *Wrapped) Execute(ctx *Context) error {
	if w.Run != nil {
		return w.Run(ctx)
	}
	return w.Executor.Execute(ctx)
}

func (w *Wrapped) Unwrap() Executor { return w.Executor }

// Wrap returns an executor that runs run instead of e.Execute.
func Wrap(e Executor, run func(ctx *Context) error) Executor {
	return &Wrapped{Executor: e, Run: run}
}

// Root unwraps e until the underlying executor is not Unwrappable.
func Root(e Executor) Executor {
	for {
		u, ok := e.(Unwrappable)
		if !ok {
			return e
		}
		e = u.Unwrap()
	}
}
