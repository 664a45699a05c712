package models

// Player represents a player document in the players collection
type Player struct {
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	Positions []int     `json:"positions"`
	ImageURL  *MediaRef `json:"imageUrl,omitempty"`
}

// HasPosition reports whether the player can play the given position
func (p Player) HasPosition(pos Position) bool {
	for _, id := range p.Positions {
		if Position(id) == pos {
			return true
		}
	}
	return false
}
