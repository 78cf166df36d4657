package entity

// Player is a seat in a game, bound to one user and one immutable symbol.
type Player struct {
	UserID        string `json:"userId"`
	Symbol        string `json:"symbol"`
	IsReady       bool   `json:"isReady"`
	IsCurrentTurn bool   `json:"isCurrentTurn"`
	Score         int    `json:"score"`
	// TimeRemaining is nil when the game has no clock.
	TimeRemaining *int `json:"timeRemaining,omitempty"`
}

func (that *Player) clone() Player {
	seat := *that
	if that.TimeRemaining != nil {
		remaining := *that.TimeRemaining
		seat.TimeRemaining = &remaining
	}
	return seat
}

// User is a reference to an externally owned identity.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}
