package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rvianello/bonusmalus/internal/model"
	"github.com/rvianello/bonusmalus/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Stable machine codes. Clients handle these programmatically, e.g.
// re-fetching state on RULE_ALREADY_ASSIGNED instead of treating the
// conflict as a bug.
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeGameNotFound         = "GAME_NOT_FOUND"
	CodePlayerNotFound       = "PLAYER_NOT_FOUND"
	CodeRuleNotFound         = "RULE_NOT_FOUND"
	CodeGameNotStarted       = "GAME_NOT_STARTED"
	CodeGameEnded            = "GAME_ENDED"
	CodeEndConditionsNotMet  = "END_CONDITIONS_NOT_MET"
	CodeNoPlayers            = "NO_PLAYERS"
	CodeNotCreator           = "NOT_CREATOR"
	CodeRuleAlreadyAssigned  = "RULE_ALREADY_ASSIGNED"
	CodeDuplicateRuleName    = "DUPLICATE_RULE_NAME"
	CodeDuplicateCredentials = "DUPLICATE_PLAYER_CREDENTIALS"
	CodeInvalidRuleDelta     = "INVALID_RULE_DELTA"
	CodeInternalError        = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrGameNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeGameNotFound, "Game not found"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrRuleNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRuleNotFound, "Rule not found"}}
	case errors.Is(err, model.ErrGameNotStarted):
		return &httpError{http.StatusConflict, APIError{CodeGameNotStarted, "Game has not started"}}
	case errors.Is(err, model.ErrGameEnded):
		return &httpError{http.StatusConflict, APIError{CodeGameEnded, "Game has already ended"}}
	case errors.Is(err, model.ErrEndConditionsNotMet):
		return &httpError{http.StatusBadRequest, APIError{CodeEndConditionsNotMet, "End conditions not met"}}
	case errors.Is(err, model.ErrNoPlayers):
		return &httpError{http.StatusBadRequest, APIError{CodeNoPlayers, "Game has no players"}}
	case errors.Is(err, model.ErrNotCreator):
		return &httpError{http.StatusForbidden, APIError{CodeNotCreator, "Only the game creator can perform this action"}}
	case errors.Is(err, model.ErrRuleAlreadyAssigned):
		return &httpError{http.StatusConflict, APIError{CodeRuleAlreadyAssigned, "Rule is already assigned"}}
	case errors.Is(err, model.ErrDuplicateRuleName):
		return &httpError{http.StatusConflict, APIError{CodeDuplicateRuleName, "A rule with this name already exists"}}
	case errors.Is(err, model.ErrDuplicatePlayerCredentials):
		return &httpError{http.StatusConflict, APIError{CodeDuplicateCredentials, "Duplicate player credentials"}}
	case errors.Is(err, model.ErrInvalidRuleDelta):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRuleDelta, "Bonus rules need a positive delta, malus rules a negative one"}}
	case errors.Is(err, model.ErrInvalidRuleKind):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Rule kind must be bonus or malus"}}
	case errors.Is(err, model.ErrGameNameRequired):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Game name is required"}}
	case errors.Is(err, model.ErrPlayersRequired):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "At least one player is required"}}
	case errors.Is(err, model.ErrRulesRequired):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "At least one rule is required"}}
	case errors.Is(err, model.ErrExactlyOneCreator):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Exactly one player must be flagged as creator"}}
	case errors.Is(err, model.ErrUsernameRequired):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Player username is required"}}
	case errors.Is(err, model.ErrRuleNameRequired):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Rule name is required"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or access code"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
