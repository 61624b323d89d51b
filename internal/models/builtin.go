package models

import (
	"context"
	"math/rand"
	"sync"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/whales/internal/chess"
	"github.com/park285/whales/internal/search"
	"go.uber.org/zap"
)

const (
	IDRandom                 = "random"
	IDMaterialDepth2         = "material-depth2"
	IDWeightedMaterialDepth2 = "weighted-material-depth2"
)

type BuiltinOptions struct {
	// Seed for the random model; zero seeds from the clock.
	Seed         int64
	ParallelRoot int
	Logger       *zap.Logger
}

// Builtin returns the standard model set.
func Builtin(opts BuiltinOptions) []Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	searchOpts := []search.Option{search.WithLogger(logger)}
	if opts.ParallelRoot > 1 {
		searchOpts = append(searchOpts, search.WithParallelRoot(opts.ParallelRoot))
	}

	return []Model{
		RandomModel(opts.Seed),
		SearchModel(IDMaterialDepth2, "material to depth 2",
			"Simple material evaluation function using depth 2 minimax",
			2, chess.MaterialEvaluator, searchOpts...),
		SearchModel(IDWeightedMaterialDepth2, "weighted material to depth 2",
			"Piece-value material evaluation using depth 2 minimax",
			2, chess.WeightedMaterialEvaluator, searchOpts...),
	}
}

type randomPicker struct {
	mu   sync.Mutex
	rand *rand.Rand
}

func (p *randomPicker) random() *rand.Rand {
	p.mu.Lock()
	seed := p.rand.Int63()
	p.mu.Unlock()
	return rand.New(rand.NewSource(seed))
}

// RandomModel picks uniformly among legal moves.
func RandomModel(seed int64) Model {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	picker := &randomPicker{rand: rand.New(rand.NewSource(seed))}
	return Model{
		ID:          IDRandom,
		DisplayName: "Random",
		Description: "Make random moves",
		Play: func(_ context.Context, pos *chess.Position) (Choice, error) {
			actions := pos.Actions()
			if len(actions) == 0 {
				return Choice{}, ErrNoMove
			}
			return Choice{Action: actions[picker.random().Intn(len(actions))]}, nil
		},
	}
}

// SearchModel plays the alpha-beta choice at the given full-move budget. The
// evaluator is built for the side to move, which is the maximiser.
func SearchModel(id, displayName, description string, plies int, evaluator func(nchess.Color) search.Evaluator[chess.Action], opts ...search.Option) Model {
	return Model{
		ID:            id,
		DisplayName:   displayName,
		Description:   description,
		Deterministic: true,
		Play: func(_ context.Context, pos *chess.Position) (Choice, error) {
			engine, err := search.NewEngine(evaluator(pos.Turn()), opts...)
			if err != nil {
				return Choice{}, err
			}
			res, err := engine.Search(pos, plies)
			if err != nil {
				return Choice{}, err
			}
			if !res.HasAction {
				return Choice{}, ErrNoMove
			}
			return Choice{Action: res.Action, Value: res.Value, Nodes: res.Nodes}, nil
		},
	}
}
