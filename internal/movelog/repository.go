package movelog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/park285/whales/internal/domain"
)

var ErrDuplicateMove = errors.New("move record already exists")

type Repository interface {
	InsertMove(ctx context.Context, rec *domain.MoveRecord) (int64, error)
	// RecentMoves returns newest first; an empty model matches every model.
	RecentMoves(ctx context.Context, model string, limit int) ([]*domain.MoveRecord, error)
}

const Schema = `
CREATE TABLE IF NOT EXISTS whales_moves (
	id          BIGSERIAL PRIMARY KEY,
	request_uuid TEXT NOT NULL UNIQUE,
	model       TEXT NOT NULL,
	move_uci    TEXT NOT NULL,
	move_san    TEXT NOT NULL,
	value       DOUBLE PRECISION NOT NULL,
	nodes       INTEGER NOT NULL,
	cached      BOOLEAN NOT NULL,
	result      TEXT NOT NULL,
	method      TEXT NOT NULL DEFAULT '',
	eco_code    TEXT NOT NULL,
	eco_title   TEXT NOT NULL,
	moves_uci   JSONB NOT NULL,
	pgn         TEXT NOT NULL,
	latency_ms  BIGINT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS whales_moves_model_created ON whales_moves (model, created_at DESC);`

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// EnsureSchema creates the move table when it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create move schema: %w", err)
	}
	return nil
}

const selectColumns = `
		SELECT
			id,
			request_uuid,
			model,
			move_uci,
			move_san,
			value,
			nodes,
			cached,
			result,
			method,
			eco_code,
			eco_title,
			moves_uci,
			pgn,
			latency_ms,
			created_at
		FROM whales_moves`

func (r *repository) InsertMove(ctx context.Context, rec *domain.MoveRecord) (int64, error) {
	if rec == nil {
		return 0, fmt.Errorf("nil move record")
	}
	movesUCI, err := json.Marshal(rec.MovesUCI)
	if err != nil {
		return 0, fmt.Errorf("marshal moves_uci: %w", err)
	}

	const query = `
		INSERT INTO whales_moves (
			request_uuid,
			model,
			move_uci,
			move_san,
			value,
			nodes,
			cached,
			result,
			method,
			eco_code,
			eco_title,
			moves_uci,
			pgn,
			latency_ms,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb, $13, $14, $15)
		ON CONFLICT (request_uuid) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(
		ctx,
		query,
		rec.RequestUUID,
		rec.Model,
		rec.MoveUCI,
		rec.MoveSAN,
		rec.Value,
		rec.Nodes,
		rec.Cached,
		rec.Result,
		rec.Method,
		rec.ECOCode,
		rec.ECOTitle,
		movesUCI,
		rec.PGN,
		rec.Latency.Milliseconds(),
		rec.CreatedAt,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return 0, ErrDuplicateMove
	}
	if err != nil {
		return 0, fmt.Errorf("insert move: %w", err)
	}
	return id.Int64, nil
}

func (r *repository) RecentMoves(ctx context.Context, model string, limit int) ([]*domain.MoveRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	query := selectColumns + `
		WHERE ($1 = '' OR model = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, model, limit)
	if err != nil {
		return nil, fmt.Errorf("select moves: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.MoveRecord, 0, limit)
	for rows.Next() {
		rec, err := scanMove(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate moves: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMove(row scanner) (*domain.MoveRecord, error) {
	var (
		rec          domain.MoveRecord
		movesUCIJSON []byte
		latencyMS    sql.NullInt64
	)
	err := row.Scan(
		&rec.ID,
		&rec.RequestUUID,
		&rec.Model,
		&rec.MoveUCI,
		&rec.MoveSAN,
		&rec.Value,
		&rec.Nodes,
		&rec.Cached,
		&rec.Result,
		&rec.Method,
		&rec.ECOCode,
		&rec.ECOTitle,
		&movesUCIJSON,
		&rec.PGN,
		&latencyMS,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan move: %w", err)
	}
	if latencyMS.Valid {
		rec.Latency = time.Duration(latencyMS.Int64) * time.Millisecond
	}
	if err := json.Unmarshal(movesUCIJSON, &rec.MovesUCI); err != nil {
		return nil, fmt.Errorf("unmarshal moves_uci: %w", err)
	}
	return &rec, nil
}
