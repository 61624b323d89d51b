package chess

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/whales/internal/search"
)

// Action identifies a move by its squares and promotion piece.
type Action struct {
	From  nchess.Square
	To    nchess.Square
	Promo nchess.PieceType
}

var promoLetters = map[nchess.PieceType]string{
	nchess.Queen:  "q",
	nchess.Rook:   "r",
	nchess.Bishop: "b",
	nchess.Knight: "n",
}

// String renders the action in UCI notation.
func (a Action) String() string {
	return a.From.String() + a.To.String() + promoLetters[a.Promo]
}

// Position is an immutable view of a game; Play derives new positions from a clone.
type Position struct {
	game *nchess.Game
}

func NewPosition(game *nchess.Game) *Position {
	if game == nil {
		return StartPosition()
	}
	return &Position{game: game.Clone()}
}

func StartPosition() *Position {
	return &Position{game: nchess.NewGame()}
}

func (p *Position) Actions() []Action {
	if p.Terminal() {
		return nil
	}
	moves := p.game.ValidMoves()
	out := make([]Action, 0, len(moves))
	for _, mv := range moves {
		out = append(out, Action{From: mv.S1(), To: mv.S2(), Promo: mv.Promo()})
	}
	return out
}

// Apply panics on an action that is not legal here; the search only applies
// actions it enumerated from the same position.
func (p *Position) Apply(action Action) search.State[Action] {
	next, err := p.Play(action)
	if err != nil {
		panic(fmt.Sprintf("chess: apply enumerated action: %v", err))
	}
	return next
}

func (p *Position) Terminal() bool {
	return p.Outcome() != nchess.NoOutcome
}

func (p *Position) Play(action Action) (*Position, error) {
	next := p.game.Clone()
	mv, err := nchess.UCINotation{}.Decode(next.Position(), action.String())
	if err != nil {
		return nil, fmt.Errorf("decode move %s: %w", action, err)
	}
	if err := next.Move(mv, nil); err != nil {
		return nil, fmt.Errorf("apply move %s: %w", action, err)
	}
	return &Position{game: next}, nil
}

// ParseAction decodes a UCI move against this position.
func (p *Position) ParseAction(uci string) (Action, error) {
	mv, err := nchess.UCINotation{}.Decode(p.game.Position(), strings.ToLower(strings.TrimSpace(uci)))
	if err != nil {
		return Action{}, fmt.Errorf("decode move %s: %w", uci, err)
	}
	return Action{From: mv.S1(), To: mv.S2(), Promo: mv.Promo()}, nil
}

func (p *Position) Turn() nchess.Color {
	return p.game.Position().Turn()
}

func (p *Position) Outcome() nchess.Outcome {
	outcome, _ := p.result()
	return outcome
}

func (p *Position) Method() nchess.Method {
	_, method := p.result()
	return method
}

// result reports the game's outcome. The game only records one after a move,
// so a position set up from a FEN tag is checked for mate and stalemate here.
func (p *Position) result() (nchess.Outcome, nchess.Method) {
	if outcome := p.game.Outcome(); outcome != nchess.NoOutcome {
		return outcome, p.game.Method()
	}
	switch p.game.Position().Status() {
	case nchess.Checkmate:
		if p.Turn() == nchess.White {
			return nchess.BlackWon, nchess.Checkmate
		}
		return nchess.WhiteWon, nchess.Checkmate
	case nchess.Stalemate:
		return nchess.Draw, nchess.Stalemate
	default:
		return nchess.NoOutcome, nchess.NoMethod
	}
}

// Winner returns the colour that won, or NoColor for ongoing and drawn games.
func (p *Position) Winner() nchess.Color {
	switch p.Outcome() {
	case nchess.WhiteWon:
		return nchess.White
	case nchess.BlackWon:
		return nchess.Black
	default:
		return nchess.NoColor
	}
}

func (p *Position) FEN() string {
	return p.game.FEN()
}

func (p *Position) Board() *nchess.Board {
	return p.game.Position().Board()
}

// PieceCount counts every piece of the colour, kings included.
func (p *Position) PieceCount(color nchess.Color) int {
	return p.Material(color, func(nchess.PieceType) int { return 1 })
}

// Material sums weight over the colour's pieces on all 64 squares.
func (p *Position) Material(color nchess.Color, weight func(nchess.PieceType) int) int {
	board := p.Board()
	total := 0
	for file := nchess.FileA; file <= nchess.FileH; file++ {
		for rank := nchess.Rank1; rank <= nchess.Rank8; rank++ {
			piece := board.Piece(nchess.NewSquare(file, rank))
			if piece == nchess.NoPiece || piece.Color() != color {
				continue
			}
			total += weight(piece.Type())
		}
	}
	return total
}

// History returns the moves played so far in UCI notation.
func (p *Position) History() []string {
	moves := p.game.Moves()
	positions := p.game.Positions()
	notation := nchess.UCINotation{}
	out := make([]string, 0, len(moves))
	for i, mv := range moves {
		if i >= len(positions) {
			break
		}
		out = append(out, strings.ToLower(notation.Encode(positions[i], mv)))
	}
	return out
}

// SAN renders an action in algebraic notation, or UCI when it cannot be decoded.
func (p *Position) SAN(action Action) string {
	pos := p.game.Position()
	mv, err := nchess.UCINotation{}.Decode(pos, action.String())
	if err != nil {
		return action.String()
	}
	return nchess.AlgebraicNotation{}.Encode(pos, mv)
}

// LastAction returns the most recent move, if any.
func (p *Position) LastAction() (Action, bool) {
	moves := p.game.Moves()
	if len(moves) == 0 {
		return Action{}, false
	}
	mv := moves[len(moves)-1]
	return Action{From: mv.S1(), To: mv.S2(), Promo: mv.Promo()}, true
}
