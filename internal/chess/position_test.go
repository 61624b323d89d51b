package chess

import (
	"errors"
	"slices"
	"strings"
	"testing"

	nchess "github.com/corentings/chess/v2"
)

func mustReplay(t *testing.T, moves ...string) *Position {
	t.Helper()
	pos, err := ReplayUCI(moves)
	if err != nil {
		t.Fatalf("replay %v: %v", moves, err)
	}
	return pos
}

func TestStartPositionActions(t *testing.T) {
	pos := StartPosition()
	actions := pos.Actions()
	if len(actions) != 20 {
		t.Fatalf("expected 20 opening moves, got %d", len(actions))
	}
	if pos.Terminal() {
		t.Fatalf("start position must not be terminal")
	}
	if pos.Turn() != nchess.White {
		t.Fatalf("expected white to move")
	}
	if n := pos.PieceCount(nchess.White); n != 16 {
		t.Fatalf("expected 16 white pieces, got %d", n)
	}
}

func TestPlayLeavesReceiverUntouched(t *testing.T) {
	pos := StartPosition()
	action, err := pos.ParseAction("e2e4")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	next, err := pos.Play(action)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if got := len(pos.History()); got != 0 {
		t.Fatalf("receiver history changed: %d moves", got)
	}
	if got := next.History(); !slices.Equal(got, []string{"e2e4"}) {
		t.Fatalf("unexpected history %v", got)
	}
	if next.Turn() != nchess.Black {
		t.Fatalf("expected black to move after e2e4")
	}
	if san := pos.SAN(action); san != "e4" {
		t.Fatalf("expected SAN e4, got %q", san)
	}
}

func TestApplyIsDeterministic(t *testing.T) {
	pos := mustReplay(t, "e2e4", "e7e5")
	action, err := pos.ParseAction("g1f3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	a := pos.Apply(action).(*Position)
	b := pos.Apply(action).(*Position)
	if a.FEN() != b.FEN() {
		t.Fatalf("same action produced %q and %q", a.FEN(), b.FEN())
	}
}

func TestApplyPanicsOnIllegalAction(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for illegal action")
		}
	}()
	StartPosition().Apply(Action{From: nchess.E2, To: nchess.E5})
}

func TestActionStringPromotion(t *testing.T) {
	a := Action{From: nchess.E7, To: nchess.E8, Promo: nchess.Queen}
	if a.String() != "e7e8q" {
		t.Fatalf("unexpected UCI %q", a.String())
	}
	if (Action{From: nchess.G1, To: nchess.F3}).String() != "g1f3" {
		t.Fatalf("unexpected UCI for quiet move")
	}
}

func TestCheckmateIsTerminal(t *testing.T) {
	pos := mustReplay(t, "f2f3", "e7e5", "g2g4", "d8h4")
	if !pos.Terminal() {
		t.Fatalf("fool's mate must be terminal")
	}
	if len(pos.Actions()) != 0 {
		t.Fatalf("terminal position must have no actions")
	}
	if pos.Winner() != nchess.Black {
		t.Fatalf("expected black to win, got %v", pos.Winner())
	}
}

const (
	fenMated     = "7k/6Q1/6K1/8/8/8/8/8 b - - 0 1"
	fenStalemate = "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"
	// white king in check from an unprotected queen; Kxd2 leaves king and bishop against king
	fenBareQueen = "8/8/8/4k3/8/8/3q4/4KB2 w - - 0 1"
)

func mustFEN(t *testing.T, fen string) *Position {
	t.Helper()
	pos, err := DecodePGN("[SetUp \"1\"]\n[FEN \"" + fen + "\"]\n\n*")
	if err != nil {
		t.Fatalf("decode %s: %v", fen, err)
	}
	return pos
}

func TestSetUpCheckmateIsTerminal(t *testing.T) {
	pos := mustFEN(t, fenMated)
	if !pos.Terminal() {
		t.Fatalf("mated position must be terminal")
	}
	if pos.Outcome() != nchess.WhiteWon || pos.Method() != nchess.Checkmate {
		t.Fatalf("expected white to win by checkmate, got %v by %v", pos.Outcome(), pos.Method())
	}
	if pos.Winner() != nchess.White {
		t.Fatalf("expected white to win, got %v", pos.Winner())
	}
	if len(pos.Actions()) != 0 {
		t.Fatalf("terminal position must have no actions")
	}
	if v := MaterialEvaluator(nchess.White)(pos); v != WinBonus+1 {
		t.Fatalf("winner should see material plus bonus, got %v", v)
	}
	if v := MaterialEvaluator(nchess.Black)(pos); v != -1 {
		t.Fatalf("loser should see material only, got %v", v)
	}
}

func TestStalemateScoresMaterialOnly(t *testing.T) {
	pos := mustFEN(t, fenStalemate)
	if !pos.Terminal() {
		t.Fatalf("stalemate must be terminal")
	}
	if pos.Outcome() != nchess.Draw || pos.Method() != nchess.Stalemate {
		t.Fatalf("expected a draw by stalemate, got %v by %v", pos.Outcome(), pos.Method())
	}
	if pos.Winner() != nchess.NoColor {
		t.Fatalf("stalemate has no winner, got %v", pos.Winner())
	}
	if v := MaterialEvaluator(nchess.White)(pos); v != 1 {
		t.Fatalf("expected material only for white, got %v", v)
	}
	if v := MaterialEvaluator(nchess.Black)(pos); v != -1 {
		t.Fatalf("expected material only for black, got %v", v)
	}
	if v := WeightedMaterialEvaluator(nchess.White)(pos); v != 9 {
		t.Fatalf("expected the queen's weight only, got %v", v)
	}
}

func TestDrawnGameScoresMaterialOnly(t *testing.T) {
	pos := mustFEN(t, fenBareQueen)
	if pos.Terminal() {
		t.Fatalf("position before the capture is still playable")
	}
	capture, err := pos.ParseAction("e1d2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	drawn, err := pos.Play(capture)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if !drawn.Terminal() || drawn.Outcome() != nchess.Draw || drawn.Method() != nchess.InsufficientMaterial {
		t.Fatalf("expected a draw by insufficient material, got %v by %v", drawn.Outcome(), drawn.Method())
	}
	if v := MaterialEvaluator(nchess.White)(drawn); v != 1 {
		t.Fatalf("expected material only, got %v", v)
	}
	if v := WeightedMaterialEvaluator(nchess.White)(drawn); v != 3 {
		t.Fatalf("expected the bishop's weight only, got %v", v)
	}
}

func TestMaterialEvaluatorSignConvention(t *testing.T) {
	start := StartPosition()
	if v := MaterialEvaluator(nchess.White)(start); v != 0 {
		t.Fatalf("start position should be balanced, got %v", v)
	}

	pos := mustReplay(t, "e2e4", "d7d5", "e4d5")
	if v := MaterialEvaluator(nchess.White)(pos); v != 1 {
		t.Fatalf("white up a pawn: expected 1, got %v", v)
	}
	if v := MaterialEvaluator(nchess.Black)(pos); v != -1 {
		t.Fatalf("black down a pawn: expected -1, got %v", v)
	}
}

func TestMaterialEvaluatorWinBonus(t *testing.T) {
	pos := mustReplay(t, "f2f3", "e7e5", "g2g4", "d8h4")
	if v := MaterialEvaluator(nchess.Black)(pos); v != WinBonus {
		t.Fatalf("winner should receive the bonus, got %v", v)
	}
	// the loser gets no penalty
	if v := MaterialEvaluator(nchess.White)(pos); v != 0 {
		t.Fatalf("loser should see material only, got %v", v)
	}
}

func TestWeightedMaterialEvaluator(t *testing.T) {
	pos := mustReplay(t, "e2e4", "e7e5", "g1f3", "b8c6", "f3e5", "c6e5")
	if v := MaterialEvaluator(nchess.White)(pos); v != 0 {
		t.Fatalf("piece counts are level, got %v", v)
	}
	if v := WeightedMaterialEvaluator(nchess.White)(pos); v != -2 {
		t.Fatalf("knight for pawn: expected -2, got %v", v)
	}
}

func TestDecodePGN(t *testing.T) {
	pos, err := DecodePGN("")
	if err != nil {
		t.Fatalf("blank PGN: %v", err)
	}
	if len(pos.History()) != 0 {
		t.Fatalf("blank PGN should be the starting position")
	}

	pos, err = DecodePGN("1. e4 e5 2. Nf3 *")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := pos.History(); !slices.Equal(got, []string{"e2e4", "e7e5", "g1f3"}) {
		t.Fatalf("unexpected history %v", got)
	}

	again, err := DecodePGN(EncodePGN(pos))
	if err != nil {
		t.Fatalf("decode encoded: %v", err)
	}
	if again.FEN() != pos.FEN() {
		t.Fatalf("round trip changed position: %q vs %q", again.FEN(), pos.FEN())
	}
}

func TestDecodePGNRejectsIllegalMoves(t *testing.T) {
	_, err := DecodePGN("1. e4 e5 2. Ke3 *")
	if !errors.Is(err, ErrInvalidPGN) {
		t.Fatalf("expected ErrInvalidPGN, got %v", err)
	}
}

func TestOpeningLabel(t *testing.T) {
	pos := mustReplay(t, "e2e4", "e7e5", "g1f3", "b8c6", "f1b5")
	code, title := pos.Opening()
	if !strings.HasPrefix(code, "C") || title == "" {
		t.Fatalf("expected a C-series ECO label, got %q %q", code, title)
	}
}
