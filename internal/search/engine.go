package search

import (
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
)

// Agents is the number of sides alternating moves; one full move is Agents plies.
const Agents = 2

var (
	ErrNegativeBudget = errors.New("search: ply budget must not be negative")
	ErrNilEvaluator   = errors.New("search: evaluator is required")
)

// State is the capability set the engine needs from a game position.
// Apply must leave the receiver unmodified and return an independently owned state.
type State[A comparable] interface {
	Actions() []A
	Apply(action A) State[A]
	Terminal() bool
}

// Evaluator scores a state; positive values favour the maximising side.
type Evaluator[A comparable] func(state State[A]) float64

type Result[A comparable] struct {
	Value     float64
	Action    A
	HasAction bool
	Nodes     int
}

type Option func(*options)

type options struct {
	workers int
	logger  *zap.Logger
}

// WithParallelRoot splits the root's actions across up to workers goroutines.
func WithParallelRoot(workers int) Option {
	return func(o *options) { o.workers = workers }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

type Engine[A comparable] struct {
	eval    Evaluator[A]
	workers int
	logger  *zap.Logger
}

func NewEngine[A comparable](eval Evaluator[A], opts ...Option) (*Engine[A], error) {
	if eval == nil {
		return nil, ErrNilEvaluator
	}
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine[A]{eval: eval, workers: o.workers, logger: o.logger}, nil
}

// Search runs minimax with alpha-beta pruning, looking plies full moves ahead.
func (e *Engine[A]) Search(state State[A], plies int) (Result[A], error) {
	if plies < 0 {
		return Result[A]{}, ErrNegativeBudget
	}
	start := time.Now()
	w := &walker[A]{eval: e.eval, maxDepth: plies * Agents}

	var res Result[A]
	if e.workers > 1 {
		res = w.splitRoot(state, e.workers)
	} else {
		res = w.alphaBeta(state, 0, math.Inf(-1), math.Inf(1))
	}
	res.Nodes = w.nodes

	e.logger.Debug("search finished",
		zap.Int("plies", plies),
		zap.Float64("value", res.Value),
		zap.Bool("has_action", res.HasAction),
		zap.Int("nodes", res.Nodes),
		zap.Int("workers", e.workers),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// Exhaustive walks the same bounded tree without pruning.
func (e *Engine[A]) Exhaustive(state State[A], plies int) (Result[A], error) {
	if plies < 0 {
		return Result[A]{}, ErrNegativeBudget
	}
	w := &walker[A]{eval: e.eval, maxDepth: plies * Agents}
	res := w.minimax(state, 0)
	res.Nodes = w.nodes
	return res, nil
}

type walker[A comparable] struct {
	eval     Evaluator[A]
	maxDepth int
	nodes    int
}

// leaf reports whether the node is scored directly. A non-terminal node with no
// actions is scored too, so an infinite sentinel never escapes.
func (w *walker[A]) leaf(state State[A], depth int) ([]A, bool) {
	if depth >= w.maxDepth || state.Terminal() {
		return nil, true
	}
	actions := state.Actions()
	return actions, len(actions) == 0
}

func (w *walker[A]) alphaBeta(state State[A], depth int, alpha, beta float64) Result[A] {
	w.nodes++
	actions, leaf := w.leaf(state, depth)
	if leaf {
		return Result[A]{Value: w.eval(state)}
	}

	if depth%Agents == 0 {
		best := Result[A]{Value: math.Inf(-1)}
		for _, action := range actions {
			v := w.alphaBeta(state.Apply(action), depth+1, alpha, beta).Value
			if v > best.Value {
				best.Value, best.Action, best.HasAction = v, action, true
			}
			// beta cutoff: a minimising ancestor will not pick this branch
			if best.Value > beta {
				return best
			}
			alpha = math.Max(alpha, best.Value)
		}
		return best
	}

	best := Result[A]{Value: math.Inf(1)}
	for _, action := range actions {
		v := w.alphaBeta(state.Apply(action), depth+1, alpha, beta).Value
		if v < best.Value {
			best.Value, best.Action, best.HasAction = v, action, true
		}
		// alpha cutoff
		if best.Value < alpha {
			return best
		}
		beta = math.Min(beta, best.Value)
	}
	return best
}

func (w *walker[A]) minimax(state State[A], depth int) Result[A] {
	w.nodes++
	actions, leaf := w.leaf(state, depth)
	if leaf {
		return Result[A]{Value: w.eval(state)}
	}

	maximizing := depth%Agents == 0
	best := Result[A]{Value: math.Inf(1)}
	if maximizing {
		best.Value = math.Inf(-1)
	}
	for _, action := range actions {
		v := w.minimax(state.Apply(action), depth+1).Value
		if (maximizing && v > best.Value) || (!maximizing && v < best.Value) {
			best.Value, best.Action, best.HasAction = v, action, true
		}
	}
	return best
}
