package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"math"
	"time"

	"github.com/park285/whales/internal/chess"
	"github.com/park285/whales/internal/domain"
	"github.com/park285/whales/internal/models"
	"github.com/park285/whales/internal/msgcat"
	"github.com/park285/whales/internal/service/move"
	"github.com/park285/whales/pkg/whalesdto"
	"go.uber.org/zap"
)

// MoveService is the part of the move service the API drives.
type MoveService interface {
	Models() []models.Info
	Move(ctx context.Context, modelID, pgn string) (*move.Result, error)
	Render(ctx context.Context, pgn string) ([]byte, error)
	RecentMoves(ctx context.Context, model string, limit int) ([]*domain.MoveRecord, error)
}

// Handler maps request objects to response objects independently of transport.
type Handler struct {
	svc     MoveService
	catalog *msgcat.Catalog
	logger  *zap.Logger
}

func NewHandler(svc MoveService, catalog *msgcat.Catalog, logger *zap.Logger) *Handler {
	if catalog == nil {
		catalog = msgcat.MustDefault()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, catalog: catalog, logger: logger}
}

// QueryJSON decodes body and answers it; undecodable input is an invalid request.
// Numbers are kept as json.Number so error messages echo them as written.
func (h *Handler) QueryJSON(ctx context.Context, body []byte) whalesdto.Response {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var request any
	if err := dec.Decode(&request); err != nil {
		return h.fail(whalesdto.CodeInvalidJSON, nil)
	}
	if _, err := dec.Token(); err != io.EOF {
		return h.fail(whalesdto.CodeInvalidJSON, nil)
	}
	return h.Query(ctx, request)
}

// Query answers one decoded request. It never panics on malformed input.
func (h *Handler) Query(ctx context.Context, request any) whalesdto.Response {
	fields, ok := request.(map[string]any)
	if !ok {
		return h.fail(whalesdto.CodeInvalidJSON, nil)
	}
	command, ok := fields["command"]
	if !ok {
		return h.fail(whalesdto.CodeNoCommand, nil)
	}

	switch command {
	case whalesdto.CommandListModels:
		return h.listModels()
	case whalesdto.CommandGetMove:
		return h.getMove(ctx, fields)
	case whalesdto.CommandRenderBoard:
		return h.renderBoard(ctx, fields)
	case whalesdto.CommandRecentMoves:
		return h.recentMoves(ctx, fields)
	default:
		return h.fail(whalesdto.CodeUnknownCommand, map[string]string{"Command": pyRepr(command)})
	}
}

func (h *Handler) listModels() whalesdto.Response {
	info := h.svc.Models()
	out := make([]whalesdto.ModelInfo, 0, len(info))
	for _, m := range info {
		out = append(out, whalesdto.ModelInfo{InternalName: m.InternalName, DisplayName: m.DisplayName, Description: m.Description})
	}
	return ok(whalesdto.Response{Models: &out})
}

func (h *Handler) getMove(ctx context.Context, fields map[string]any) whalesdto.Response {
	if resp, missing := h.require(fields, "model", "pgn"); missing {
		return resp
	}
	modelID, isString := fields["model"].(string)
	if !isString {
		return h.fail(whalesdto.CodeUnknownModel, map[string]string{"Model": pyRepr(fields["model"])})
	}
	pgn, isString := fields["pgn"].(string)
	if !isString {
		return h.fail(whalesdto.CodeInvalidPGN, nil)
	}

	result, err := h.svc.Move(ctx, modelID, pgn)
	if err != nil {
		return h.fromError(err, modelID)
	}
	return ok(whalesdto.Response{PGN: result.PGN})
}

func (h *Handler) renderBoard(ctx context.Context, fields map[string]any) whalesdto.Response {
	if resp, missing := h.require(fields, "pgn"); missing {
		return resp
	}
	pgn, isString := fields["pgn"].(string)
	if !isString {
		return h.fail(whalesdto.CodeInvalidPGN, nil)
	}
	data, err := h.svc.Render(ctx, pgn)
	if err != nil {
		return h.fromError(err, "")
	}
	return ok(whalesdto.Response{PNG: base64.StdEncoding.EncodeToString(data)})
}

func (h *Handler) recentMoves(ctx context.Context, fields map[string]any) whalesdto.Response {
	model := ""
	if raw, present := fields["model"]; present {
		s, isString := raw.(string)
		if !isString {
			return h.fail(whalesdto.CodeInvalidParameter, map[string]string{"Param": "'model'"})
		}
		model = s
	}
	limit := 0
	if raw, present := fields["limit"]; present {
		n, valid := positiveInt(raw)
		if !valid {
			return h.fail(whalesdto.CodeInvalidParameter, map[string]string{"Param": "'limit'"})
		}
		limit = n
	}

	records, err := h.svc.RecentMoves(ctx, model, limit)
	if err != nil {
		return h.fromError(err, model)
	}
	out := make([]whalesdto.MoveRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, whalesdto.MoveRecord{
			RequestID: rec.RequestUUID,
			Model:     rec.Model,
			Move:      rec.MoveUCI,
			SAN:       rec.MoveSAN,
			Value:     rec.Value,
			Nodes:     rec.Nodes,
			Cached:    rec.Cached,
			Result:    rec.Result,
			Method:    rec.Method,
			ECOCode:   rec.ECOCode,
			LatencyMS: rec.Latency.Milliseconds(),
			CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return ok(whalesdto.Response{Moves: &out})
}

// positiveInt accepts an integral number above zero, decoded either way.
func positiveInt(raw any) (int, bool) {
	var f float64
	switch n := raw.(type) {
	case float64:
		f = n
	case json.Number:
		v, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = v
	default:
		return 0, false
	}
	if f <= 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// require reports the first absent parameter, in the order given.
func (h *Handler) require(fields map[string]any, params ...string) (whalesdto.Response, bool) {
	for _, p := range params {
		if _, present := fields[p]; !present {
			return h.fail(whalesdto.CodeMissingParameter, map[string]string{"Param": pyRepr(p)}), true
		}
	}
	return whalesdto.Response{}, false
}

func (h *Handler) fromError(err error, modelID string) whalesdto.Response {
	derr := toDomainError(err)
	switch derr.Code {
	case whalesdto.CodeUnknownModel:
		return h.fail(derr.Code, map[string]string{"Model": pyRepr(modelID)})
	case whalesdto.CodeInternal:
		if derr.Retryable {
			h.logger.Warn("query interrupted", zap.String("model", modelID), zap.Error(err))
		} else {
			h.logger.Error("query failed", zap.String("model", modelID), zap.Error(err))
		}
	}
	return h.fail(derr.Code, nil)
}

func toDomainError(err error) whalesdto.DomainError {
	switch {
	case errors.Is(err, models.ErrNoSuchModel):
		return whalesdto.DomainError{Code: whalesdto.CodeUnknownModel}
	case errors.Is(err, chess.ErrInvalidPGN):
		return whalesdto.DomainError{Code: whalesdto.CodeInvalidPGN}
	case errors.Is(err, models.ErrGameOver):
		return whalesdto.DomainError{Code: whalesdto.CodeGameOver}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return whalesdto.DomainError{Code: whalesdto.CodeInternal, Retryable: true}
	default:
		return whalesdto.DomainError{Code: whalesdto.CodeInternal}
	}
}

func (h *Handler) fail(code string, data map[string]string) whalesdto.Response {
	return whalesdto.ErrorResponse(h.catalog.Text("api."+code, data))
}

func ok(resp whalesdto.Response) whalesdto.Response {
	resp.Error = nil
	return resp
}
