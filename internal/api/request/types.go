package request

// PlayerSpec describes a player in a game creation request
type PlayerSpec struct {
	Username  string `json:"username"`
	IsCreator bool   `json:"is_creator"`
}

// RuleSpec describes a rule in a game creation request
type RuleSpec struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Delta int    `json:"delta"`
}

// CreateGameRequest is the request body for creating a game
type CreateGameRequest struct {
	Name         string       `json:"name"`
	InitialScore int          `json:"initial_score"`
	Players      []PlayerSpec `json:"players"`
	Rules        []RuleSpec   `json:"rules"`
}

// LoginRequest is the request body for a game-scoped login
type LoginRequest struct {
	Username   string `json:"username"`
	AccessCode string `json:"access_code"`
}

// CreateRuleRequest is the request body for adding a rule
type CreateRuleRequest struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Delta int    `json:"delta"`
}

// UpdateRuleRequest is the request body for editing a rule
type UpdateRuleRequest struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Delta int    `json:"delta"`
}
