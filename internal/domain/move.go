package domain

import "time"

// MoveRecord is one served move request.
type MoveRecord struct {
	ID          int64
	RequestUUID string
	Model       string
	MoveUCI     string
	MoveSAN     string
	Value       float64
	Nodes       int
	Cached      bool
	Result      string
	// Method says how a finished game ended, e.g. "checkmate"; empty while ongoing.
	Method      string
	ECOCode     string
	ECOTitle    string
	MovesUCI    []string
	PGN         string
	Latency     time.Duration
	CreatedAt   time.Time
}
