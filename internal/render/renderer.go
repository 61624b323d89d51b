package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"

	nchess "github.com/corentings/chess/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	squareSize    = 64
	boardSquares  = 8
	boardSize     = squareSize * boardSquares
	sideMargin    = 28
	captionHeight = 32
	bottomMargin  = 28
)

type MoveHighlight struct {
	From nchess.Square
	To   nchess.Square
}

type RenderOptions struct {
	Highlight *MoveHighlight
	Caption   string
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, board *nchess.Board, opts RenderOptions) ([]byte, error)
}

type svgBoardRenderer struct{}

func NewSVGBoardRenderer() BoardRenderer {
	return &svgBoardRenderer{}
}

var (
	lightSquare            = color.RGBA{233, 207, 163, 255}
	darkSquare             = color.RGBA{187, 136, 96, 255}
	backgroundColor        = color.RGBA{28, 31, 46, 255}
	whiteMoveHighlightFill = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	blackMoveHighlightFill = color.NRGBA{R: 148, G: 207, B: 255, A: 150}
	captionTextColor       = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	coordinateTextColor    = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

var (
	ranks = []nchess.Rank{nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5, nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1}
	files = []nchess.File{nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD, nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH}
)

func (r *svgBoardRenderer) RenderPNG(ctx context.Context, board *nchess.Board, opts RenderOptions) ([]byte, error) {
	if board == nil {
		return nil, fmt.Errorf("board is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	totalWidth := boardSize + sideMargin*2
	totalHeight := boardSize + captionHeight + bottomMargin
	origin := image.Point{X: sideMargin, Y: captionHeight}

	img := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	drawSquares(img, origin)
	drawHighlight(img, board, opts.Highlight, origin)
	if err := drawPieces(img, board, origin); err != nil {
		return nil, err
	}
	drawCoordinates(img, origin)
	drawCaption(img, opts.Caption)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return pngBuf.Bytes(), nil
}

func drawSquares(dst imagedraw.Image, origin image.Point) {
	for _, rank := range ranks {
		for _, file := range files {
			sq := nchess.NewSquare(file, rank)
			imagedraw.Draw(dst, squareRect(sq, origin), image.NewUniform(squareColor(sq)), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst imagedraw.Image, board *nchess.Board, origin image.Point) error {
	for sq, piece := range board.SquareMap() {
		if piece == nchess.NoPiece {
			continue
		}
		img, err := renderPieceImage(piece, squareSize)
		if err != nil {
			return err
		}
		imagedraw.Draw(dst, squareRect(sq, origin), img, image.Point{}, imagedraw.Over)
	}
	return nil
}

// drawHighlight tints both squares of the last move in the mover's colour.
func drawHighlight(img *image.RGBA, board *nchess.Board, highlight *MoveHighlight, origin image.Point) {
	if highlight == nil {
		return
	}
	fill := whiteMoveHighlightFill
	if piece := board.Piece(highlight.To); piece != nchess.NoPiece && piece.Color() == nchess.Black {
		fill = blackMoveHighlightFill
	}
	for _, sq := range []nchess.Square{highlight.From, highlight.To} {
		imagedraw.Draw(img, squareRect(sq, origin), image.NewUniform(fill), image.Point{}, imagedraw.Over)
	}
}

func drawCoordinates(dst imagedraw.Image, origin image.Point) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Face: face, Src: image.NewUniform(coordinateTextColor)}
	ascent := face.Metrics().Ascent.Ceil()
	boardEndY := origin.Y + boardSize

	for row, rank := range ranks {
		rankCenter := origin.Y + row*squareSize + squareSize/2
		drawCenteredText(drawer, rank.String(), origin.X-sideMargin/2, rankCenter+ascent/2)
	}
	for col, file := range files {
		fileCenter := origin.X + col*squareSize + squareSize/2
		drawCenteredText(drawer, file.String(), fileCenter, boardEndY+ascent+4)
	}
}

func drawCaption(dst imagedraw.Image, caption string) {
	if caption == "" {
		return
	}
	drawer := newCaptionDrawer()
	drawer.Dst = dst
	text := truncateWithEllipsis(drawer, caption, boardSize)
	baseline := (captionHeight + drawer.Face.Metrics().Ascent.Ceil()) / 2
	drawCenteredText(drawer, text, sideMargin+boardSize/2, baseline)
}

func newCaptionDrawer() *font.Drawer {
	return &font.Drawer{Face: basicfont.Face7x13, Src: image.NewUniform(captionTextColor)}
}

func truncateWithEllipsis(drawer *font.Drawer, text string, maxWidth int) string {
	if drawer.MeasureString(text).Round() <= maxWidth {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ""
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func squareRect(sq nchess.Square, origin image.Point) image.Rectangle {
	col := int(sq.File())
	row := 7 - int(sq.Rank())
	x := origin.X + col*squareSize
	y := origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func squareColor(sq nchess.Square) color.Color {
	if (int(sq.File())+int(sq.Rank()))%2 == 0 {
		return darkSquare
	}
	return lightSquare
}
