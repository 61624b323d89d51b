package chess

import (
	nchess "github.com/corentings/chess/v2"
	"github.com/park285/whales/internal/search"
)

// WinBonus is added when the game is over and the maximising colour won.
// A loss carries no matching penalty.
const WinBonus = 100.0

var pieceValues = map[nchess.PieceType]int{
	nchess.Pawn:   1,
	nchess.Knight: 3,
	nchess.Bishop: 3,
	nchess.Rook:   5,
	nchess.Queen:  9,
}

func unitWeight(nchess.PieceType) int { return 1 }

func standardWeight(pt nchess.PieceType) int { return pieceValues[pt] }

// MaterialEvaluator scores piece count of side minus piece count of the other side.
// Every piece counts once, kings included.
func MaterialEvaluator(side nchess.Color) search.Evaluator[Action] {
	return materialEvaluator(side, unitWeight)
}

// WeightedMaterialEvaluator uses conventional piece values; kings are worth nothing.
func WeightedMaterialEvaluator(side nchess.Color) search.Evaluator[Action] {
	return materialEvaluator(side, standardWeight)
}

func materialEvaluator(side nchess.Color, weight func(nchess.PieceType) int) search.Evaluator[Action] {
	return func(state search.State[Action]) float64 {
		pos, ok := state.(*Position)
		if !ok || pos == nil {
			return 0
		}
		return score(pos, side, weight)
	}
}

func score(pos *Position, side nchess.Color, weight func(nchess.PieceType) int) float64 {
	v := float64(pos.Material(side, weight) - pos.Material(side.Other(), weight))
	if pos.Terminal() && pos.Winner() == side {
		v += WinBonus
	}
	return v
}
