package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/park285/whales/internal/chess"
	"go.uber.org/zap"
)

var (
	ErrNoSuchModel    = errors.New("no such model")
	ErrGameOver       = errors.New("game is already over")
	ErrNoMove         = errors.New("model produced no move")
	ErrDuplicateModel = errors.New("duplicate model id")
	ErrInvalidModel   = errors.New("model requires an id and a play function")
)

// Choice is what a model picked for the side to move.
type Choice struct {
	Action chess.Action
	Value  float64
	Nodes  int
}

type PlayFunc func(ctx context.Context, pos *chess.Position) (Choice, error)

type Model struct {
	ID          string
	DisplayName string
	Description string
	// Deterministic models always pick the same move for the same position.
	Deterministic bool
	Play          PlayFunc
}

type Info struct {
	InternalName string `json:"internalName"`
	DisplayName  string `json:"displayName"`
	Description  string `json:"description"`
}

// Registry maps model ids to models. It is immutable after construction and
// safe for concurrent use.
type Registry struct {
	models map[string]Model
	info   []Info
	logger *zap.Logger
}

func NewRegistry(logger *zap.Logger, models ...Model) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{models: make(map[string]Model, len(models)), logger: logger}
	for _, m := range models {
		if strings.TrimSpace(m.ID) == "" || m.Play == nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidModel, m.ID)
		}
		if _, exists := r.models[m.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateModel, m.ID)
		}
		r.models[m.ID] = m
		r.info = append(r.info, Info{InternalName: m.ID, DisplayName: m.DisplayName, Description: m.Description})
	}
	sort.Slice(r.info, func(i, j int) bool { return r.info[i].InternalName < r.info[j].InternalName })
	return r, nil
}

// List returns model descriptions sorted by id.
func (r *Registry) List() []Info {
	out := make([]Info, len(r.info))
	copy(out, r.info)
	return out
}

func (r *Registry) Lookup(id string) (Model, bool) {
	m, ok := r.models[id]
	return m, ok
}

// Choose runs the model on pos without modifying it.
func (r *Registry) Choose(ctx context.Context, id string, pos *chess.Position) (Choice, error) {
	m, ok := r.models[id]
	if !ok {
		return Choice{}, fmt.Errorf("%w: %s", ErrNoSuchModel, id)
	}
	if pos.Terminal() {
		return Choice{}, ErrGameOver
	}
	if err := ctx.Err(); err != nil {
		return Choice{}, err
	}
	choice, err := m.Play(ctx, pos)
	if err != nil {
		return Choice{}, fmt.Errorf("model %s: %w", id, err)
	}
	r.logger.Debug("model chose move",
		zap.String("model", id),
		zap.String("move", choice.Action.String()),
		zap.Float64("value", choice.Value),
		zap.Int("nodes", choice.Nodes),
	)
	return choice, nil
}

// Run decodes pgn, applies exactly one move chosen by the model and returns the
// re-encoded game. The model id is checked before the record is parsed.
func (r *Registry) Run(ctx context.Context, id, pgn string) (string, error) {
	if _, ok := r.models[id]; !ok {
		return "", fmt.Errorf("%w: %s", ErrNoSuchModel, id)
	}
	pos, err := chess.DecodePGN(pgn)
	if err != nil {
		return "", err
	}
	choice, err := r.Choose(ctx, id, pos)
	if err != nil {
		return "", err
	}
	next, err := pos.Play(choice.Action)
	if err != nil {
		return "", fmt.Errorf("model %s: %w", id, err)
	}
	return chess.EncodePGN(next), nil
}
