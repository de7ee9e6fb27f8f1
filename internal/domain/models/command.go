package models

// Command is one inbound operator message from the relay.
type Command struct {
	ID     int64
	Text   string
	ChatID string
}

// ControlSnapshot is a point-in-time copy of the shared control state.
type ControlSnapshot struct {
	Running         bool    `json:"running"`
	ProfitToday     float64 `json:"profit_today"`
	ChatDestination string  `json:"chat_destination,omitempty"`
	Mode            string  `json:"mode"`
	Day             string  `json:"day"`
}
