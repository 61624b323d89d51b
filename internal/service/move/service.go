package move

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/uuid"
	"github.com/park285/whales/internal/chess"
	"github.com/park285/whales/internal/domain"
	"github.com/park285/whales/internal/models"
	"github.com/park285/whales/internal/movelog"
	"github.com/park285/whales/internal/render"
	"github.com/park285/whales/internal/service/cache"
	"go.uber.org/zap"
)

const (
	defaultCacheTTL    = time.Hour
	defaultRecentLimit = 20
	maxRecentLimit     = 200
)

type Config struct {
	CacheTTL time.Duration
}

// Service serves model moves. The cache is optional; the registry, move log and
// renderer are required.
type Service struct {
	registry *models.Registry
	cache    *cache.CacheService
	repo     movelog.Repository
	renderer render.BoardRenderer
	cfg      Config
	logger   *zap.Logger
}

type Result struct {
	RequestID string
	Model     string
	PGN       string
	Move      string
	SAN       string
	Value     float64
	Nodes     int
	Cached    bool
	Outcome   string
	Method    string
	ECOCode   string
	ECOTitle  string
	Latency   time.Duration
}

type cachedChoice struct {
	Move  string  `json:"move"`
	Value float64 `json:"value"`
	Nodes int     `json:"nodes"`
}

func NewService(registry *models.Registry, cacheSvc *cache.CacheService, repo movelog.Repository, renderer render.BoardRenderer, cfg Config, logger *zap.Logger) (*Service, error) {
	if registry == nil {
		return nil, fmt.Errorf("model registry is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("move repository is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("board renderer is required")
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		registry: registry,
		cache:    cacheSvc,
		repo:     repo,
		renderer: renderer,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

func (s *Service) Models() []models.Info {
	return s.registry.List()
}

// Move plays one move of modelID on the game in pgn.
func (s *Service) Move(ctx context.Context, modelID, pgn string) (*Result, error) {
	start := time.Now()
	model, ok := s.registry.Lookup(modelID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrNoSuchModel, modelID)
	}
	pos, err := chess.DecodePGN(pgn)
	if err != nil {
		return nil, err
	}
	if pos.Terminal() {
		return nil, models.ErrGameOver
	}

	choice, cached := s.lookupChoice(ctx, model, pos)
	if !cached {
		choice, err = s.registry.Choose(ctx, modelID, pos)
		if err != nil {
			return nil, err
		}
		s.storeChoice(ctx, model, pos, choice)
	}

	next, err := pos.Play(choice.Action)
	if err != nil {
		return nil, fmt.Errorf("apply %s move: %w", modelID, err)
	}

	code, title := next.Opening()
	result := &Result{
		RequestID: uuid.NewString(),
		Model:     modelID,
		PGN:       chess.EncodePGN(next),
		Move:      choice.Action.String(),
		SAN:       pos.SAN(choice.Action),
		Value:     choice.Value,
		Nodes:     choice.Nodes,
		Cached:    cached,
		Outcome:   resultFromOutcome(next.Outcome()),
		Method:    methodFromOutcome(next),
		ECOCode:   code,
		ECOTitle:  title,
		Latency:   time.Since(start),
	}

	s.logger.Info("move served",
		zap.String("request_id", result.RequestID),
		zap.String("model", modelID),
		zap.String("move", result.Move),
		zap.String("san", result.SAN),
		zap.Float64("value", result.Value),
		zap.Int("nodes", result.Nodes),
		zap.Bool("cached", cached),
		zap.String("result", result.Outcome),
		zap.String("method", result.Method),
		zap.String("eco_code", code),
		zap.String("eco_title", title),
		zap.Duration("latency", result.Latency),
	)

	s.persist(ctx, result, next)
	return result, nil
}

// Render draws the board of pgn with its last move highlighted.
func (s *Service) Render(ctx context.Context, pgn string) ([]byte, error) {
	pos, err := chess.DecodePGN(pgn)
	if err != nil {
		return nil, err
	}
	opts := render.RenderOptions{Caption: caption(pos)}
	if last, ok := pos.LastAction(); ok {
		opts.Highlight = &render.MoveHighlight{From: last.From, To: last.To}
	}
	return s.renderer.RenderPNG(ctx, pos.Board(), opts)
}

func (s *Service) RecentMoves(ctx context.Context, model string, limit int) ([]*domain.MoveRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	return s.repo.RecentMoves(ctx, strings.TrimSpace(model), limit)
}

func (s *Service) lookupChoice(ctx context.Context, model models.Model, pos *chess.Position) (models.Choice, bool) {
	if s.cache == nil || !model.Deterministic {
		return models.Choice{}, false
	}
	var stored cachedChoice
	found, err := s.cache.Get(ctx, s.choiceKey(model.ID, pos), &stored)
	if err != nil {
		s.logger.Warn("move cache lookup failed", zap.String("model", model.ID), zap.Error(err))
		return models.Choice{}, false
	}
	if !found {
		return models.Choice{}, false
	}
	action, err := pos.ParseAction(stored.Move)
	if err != nil {
		s.logger.Warn("discarding cached move", zap.String("model", model.ID), zap.String("move", stored.Move), zap.Error(err))
		return models.Choice{}, false
	}
	return models.Choice{Action: action, Value: stored.Value, Nodes: stored.Nodes}, true
}

func (s *Service) storeChoice(ctx context.Context, model models.Model, pos *chess.Position, choice models.Choice) {
	if s.cache == nil || !model.Deterministic {
		return
	}
	stored := cachedChoice{Move: choice.Action.String(), Value: choice.Value, Nodes: choice.Nodes}
	if err := s.cache.Set(ctx, s.choiceKey(model.ID, pos), stored, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("move cache store failed", zap.String("model", model.ID), zap.Error(err))
	}
}

// choiceKey covers the move history as well as the board, since repetition
// rules make the history part of the game state.
func (s *Service) choiceKey(modelID string, pos *chess.Position) string {
	return "move:" + modelID + ":" + hashString(pos.FEN()+"|"+strings.Join(pos.History(), " "))
}

func (s *Service) persist(ctx context.Context, result *Result, next *chess.Position) {
	rec := &domain.MoveRecord{
		RequestUUID: result.RequestID,
		Model:       result.Model,
		MoveUCI:     result.Move,
		MoveSAN:     result.SAN,
		Value:       result.Value,
		Nodes:       result.Nodes,
		Cached:      result.Cached,
		Result:      result.Outcome,
		Method:      result.Method,
		ECOCode:     result.ECOCode,
		ECOTitle:    result.ECOTitle,
		MovesUCI:    next.History(),
		PGN:         result.PGN,
		Latency:     result.Latency,
		CreatedAt:   time.Now(),
	}
	if _, err := s.repo.InsertMove(ctx, rec); err != nil && !errors.Is(err, movelog.ErrDuplicateMove) {
		s.logger.Warn("persist move failed", zap.String("request_id", result.RequestID), zap.Error(err))
	}
}

func caption(pos *chess.Position) string {
	code, title := pos.Opening()
	var status string
	if pos.Terminal() {
		status = "Game over " + string(pos.Outcome())
	} else if pos.Turn() == nchess.White {
		status = "White to move"
	} else {
		status = "Black to move"
	}
	if code == "" {
		return status
	}
	return code + " " + title + " - " + status
}

func hashString(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func resultFromOutcome(outcome nchess.Outcome) string {
	switch outcome {
	case nchess.WhiteWon:
		return "white"
	case nchess.BlackWon:
		return "black"
	case nchess.Draw:
		return "draw"
	default:
		return "ongoing"
	}
}

func methodFromOutcome(pos *chess.Position) string {
	if !pos.Terminal() {
		return ""
	}
	return strings.ToLower(pos.Method().String())
}
