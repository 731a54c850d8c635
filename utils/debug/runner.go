package debug

import (
	"fmt"
	"runtime/debug"

	"github.com/netsampler/flowtop/analyzer"
)

// PanicRunnerWrapper wraps a runner to recover panics during Run.
type PanicRunnerWrapper struct {
	wrapped analyzer.Runner
}

// Run calls the wrapped runner and converts panics into an AggregationError result.
func (p *PanicRunnerWrapper) Run(root string, topN int) (res analyzer.Result) {
	defer func() {
		if pErr := recover(); pErr != nil {
			err := &PanicErrorMessage{Root: root, Inner: fmt.Sprint(pErr), Stacktrace: debug.Stack()}
			res = analyzer.Result{
				Root:   root,
				Status: analyzer.StatusOf(err),
				Err:    err,
			}
		}
	}()

	return p.wrapped.Run(root, topN)
}

// WrapPanicRunner wraps a runner to recover panics as errors.
func WrapPanicRunner(wrapped analyzer.Runner) analyzer.Runner {
	return &PanicRunnerWrapper{
		wrapped: wrapped,
	}
}
