package search

import (
	"math"

	"golang.org/x/sync/errgroup"
)

// splitRoot searches each root child on its own goroutine with a full window.
// Values are gathered by index so ties still go to the first action in order.
func (w *walker[A]) splitRoot(state State[A], workers int) Result[A] {
	w.nodes++
	actions, leaf := w.leaf(state, 0)
	if leaf {
		return Result[A]{Value: w.eval(state)}
	}

	values := make([]float64, len(actions))
	nodes := make([]int, len(actions))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, action := range actions {
		g.Go(func() error {
			sub := &walker[A]{eval: w.eval, maxDepth: w.maxDepth}
			values[i] = sub.alphaBeta(state.Apply(action), 1, math.Inf(-1), math.Inf(1)).Value
			nodes[i] = sub.nodes
			return nil
		})
	}
	_ = g.Wait()

	best := Result[A]{Value: math.Inf(-1)}
	for i, action := range actions {
		w.nodes += nodes[i]
		if values[i] > best.Value {
			best.Value, best.Action, best.HasAction = values[i], action, true
		}
	}
	return best
}
