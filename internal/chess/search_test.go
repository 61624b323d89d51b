package chess

import (
	"testing"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/whales/internal/search"
)

func TestSearchFindsMateInOne(t *testing.T) {
	pos := mustReplay(t, "e2e4", "e7e5", "f1c4", "b8c6", "d1h5", "g8f6")
	engine, err := search.NewEngine(MaterialEvaluator(nchess.White))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	res, err := engine.Search(pos, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !res.HasAction || res.Action.String() != "h5f7" {
		t.Fatalf("expected Qxf7#, got %v (has=%v)", res.Action, res.HasAction)
	}
	if res.Value != WinBonus+1 {
		t.Fatalf("expected value %v, got %v", WinBonus+1, res.Value)
	}
}

func TestSearchOnFinishedGameReturnsNoAction(t *testing.T) {
	pos := mustReplay(t, "f2f3", "e7e5", "g2g4", "d8h4")
	engine, err := search.NewEngine(MaterialEvaluator(nchess.White))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	res, err := engine.Search(pos, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.HasAction {
		t.Fatalf("finished game must not yield a move")
	}
	if res.Nodes != 1 {
		t.Fatalf("expected only the root to be visited, got %d", res.Nodes)
	}
}

func TestSearchOnSetUpFinishedGames(t *testing.T) {
	cases := []struct {
		name string
		fen  string
		want float64
	}{
		{"checkmate", fenMated, WinBonus + 1},
		{"stalemate", fenStalemate, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine, err := search.NewEngine(MaterialEvaluator(nchess.White))
			if err != nil {
				t.Fatalf("engine: %v", err)
			}
			res, err := engine.Search(mustFEN(t, tc.fen), 2)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if res.HasAction || res.Nodes != 1 {
				t.Fatalf("expected a leaf root without action, got %+v", res)
			}
			if res.Value != tc.want {
				t.Fatalf("expected value %v, got %v", tc.want, res.Value)
			}
		})
	}
}
