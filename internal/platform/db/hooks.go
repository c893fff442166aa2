package db

import (
	"context"
	"sync"
)

type commitHooksKey struct{}

// CommitHooks collects callbacks deferred until a transaction commits.
type CommitHooks struct {
	mu   sync.Mutex
	fns  []func(context.Context)
	done bool
}

// WithCommitHooks attaches a fresh hook list to ctx unless one is already present.
func WithCommitHooks(ctx context.Context) (context.Context, *CommitHooks) {
	if hooks, ok := ctx.Value(commitHooksKey{}).(*CommitHooks); ok {
		return ctx, hooks
	}
	hooks := &CommitHooks{}
	return context.WithValue(ctx, commitHooksKey{}, hooks), hooks
}

// AfterCommit defers fn until the surrounding transaction commits. Outside a
// transaction fn runs immediately.
func AfterCommit(ctx context.Context, fn func(context.Context)) {
	if hooks, ok := ctx.Value(commitHooksKey{}).(*CommitHooks); ok {
		hooks.mu.Lock()
		if !hooks.done {
			hooks.fns = append(hooks.fns, fn)
			hooks.mu.Unlock()
			return
		}
		hooks.mu.Unlock()
	}
	fn(ctx)
}

// Run executes the collected hooks in registration order and clears them.
func (h *CommitHooks) Run(ctx context.Context) {
	if h == nil {
		return
	}
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.done = true
	h.mu.Unlock()
	ctx = context.WithoutCancel(ctx)
	for _, fn := range fns {
		fn(ctx)
	}
}

// Discard drops pending hooks after a rollback.
func (h *CommitHooks) Discard() {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.fns = nil
	h.done = true
	h.mu.Unlock()
}
