package whalesdto

const (
	CodeInvalidJSON      = "invalid_json"
	CodeNoCommand        = "no_command"
	CodeMissingParameter = "missing_param"
	CodeUnknownModel     = "unknown_model"
	CodeInvalidPGN       = "invalid_pgn"
	CodeGameOver         = "game_over"
	CodeUnknownCommand   = "unknown_command"
	CodeInvalidParameter = "invalid_param"
	CodeInternal         = "internal"
)

type DomainError struct {
	Code      string
	Message   string
	Retryable bool
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "whales service error"
}
