// Package oracle abstracts the language-model calls behind narrow text-in,
// text-out interfaces so the consolidation engine is testable with stubs.
package oracle

import "context"

// Oracle turns a formatted conversation transcript into semi-structured
// fact-extraction output. No guarantee of valid JSON; callers must parse
// defensively.
type Oracle interface {
	Extract(ctx context.Context, transcript string) (string, error)
}

// Func adapts a function to the Oracle interface.
type Func func(ctx context.Context, transcript string) (string, error)

func (f Func) Extract(ctx context.Context, transcript string) (string, error) {
	return f(ctx, transcript)
}
