package whalesdto

const (
	CommandListModels  = "list_models"
	CommandGetMove     = "get_move"
	CommandRenderBoard = "render_board"
	CommandRecentMoves = "recent_moves"
)

// Request is the client-side shape of an API query. The server accepts any
// JSON value and validates it field by field.
type Request struct {
	Command string  `json:"command"`
	Model   string  `json:"model,omitempty"`
	PGN     *string `json:"pgn,omitempty"`
	Limit   int     `json:"limit,omitempty"`
}

type ModelInfo struct {
	InternalName string `json:"internalName"`
	DisplayName  string `json:"displayName"`
	Description  string `json:"description"`
}

type MoveRecord struct {
	RequestID string  `json:"requestId"`
	Model     string  `json:"model"`
	Move      string  `json:"move"`
	SAN       string  `json:"san"`
	Value     float64 `json:"value"`
	Nodes     int     `json:"nodes"`
	Cached    bool    `json:"cached"`
	Result    string  `json:"result"`
	Method    string  `json:"method,omitempty"`
	ECOCode   string  `json:"ecoCode,omitempty"`
	LatencyMS int64   `json:"latencyMs"`
	CreatedAt string  `json:"createdAt"`
}

// Response carries exactly one payload field on success. Error is null on
// success and the only field on failure. The list fields are pointers so an
// empty list still encodes as [].
type Response struct {
	Models *[]ModelInfo  `json:"models,omitempty"`
	PGN    string        `json:"pgn,omitempty"`
	PNG    string        `json:"png,omitempty"`
	Moves  *[]MoveRecord `json:"moves,omitempty"`
	Error  *string       `json:"error"`
}

func ErrorResponse(message string) Response {
	return Response{Error: &message}
}

func (r Response) Failed() bool {
	return r.Error != nil
}

func (r Response) ModelList() []ModelInfo {
	if r.Models == nil {
		return nil
	}
	return *r.Models
}

func (r Response) MoveList() []MoveRecord {
	if r.Moves == nil {
		return nil
	}
	return *r.Moves
}
