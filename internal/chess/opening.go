package chess

import (
	"sync"

	"github.com/corentings/chess/v2/opening"
)

var (
	ecoOnce sync.Once
	ecoBook *opening.BookECO
)

func bookECO() *opening.BookECO {
	ecoOnce.Do(func() {
		ecoBook = opening.NewBookECO()
	})
	return ecoBook
}

// Opening labels the position with its ECO code and title. The label is for
// logging only and never influences move choice.
func (p *Position) Opening() (string, string) {
	if p == nil {
		return "", ""
	}
	book := bookECO()
	if book == nil {
		return "", ""
	}
	if eco := book.Find(p.game.Moves()); eco != nil {
		return eco.Code(), eco.Title()
	}
	return "", ""
}
