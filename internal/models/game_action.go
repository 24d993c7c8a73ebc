package models

// GameAction captures a client command routed to a room.
type GameAction struct {
	ActionType string `json:"action_type"`
	Room       string `json:"room"`
	Card       int    `json:"card"`
}
