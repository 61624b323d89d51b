package chess

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var ErrInvalidPGN = errors.New("invalid PGN")

// DecodePGN parses a game record. A blank record is the standard starting position.
func DecodePGN(pgn string) (*Position, error) {
	if strings.TrimSpace(pgn) == "" {
		return StartPosition(), nil
	}
	opt, err := nchess.PGN(strings.NewReader(pgn))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPGN, err)
	}
	return &Position{game: nchess.NewGame(opt)}, nil
}

// EncodePGN renders the position's full game record.
func EncodePGN(pos *Position) string {
	if pos == nil {
		return StartPosition().game.String()
	}
	return pos.game.String()
}

// ReplayUCI builds a position from the starting setup and a UCI move list.
func ReplayUCI(moves []string) (*Position, error) {
	game := nchess.NewGame()
	notation := nchess.UCINotation{}
	for _, text := range moves {
		mv, err := notation.Decode(game.Position(), strings.ToLower(strings.TrimSpace(text)))
		if err != nil {
			return nil, fmt.Errorf("decode move %s: %w", text, err)
		}
		if err := game.Move(mv, nil); err != nil {
			return nil, fmt.Errorf("apply move %s: %w", text, err)
		}
	}
	return &Position{game: game}, nil
}
