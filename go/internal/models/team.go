package models

// Trainer is embedded in team documents
type Trainer struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Age     int    `json:"age"`
}

// TeamRecord is a team as stored: players are referenced by uuid
type TeamRecord struct {
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	Story     string    `json:"story"`
	ImageURL  *MediaRef `json:"imageUrl,omitempty"`
	PlayerIDs []string  `json:"players"`
	Trainers  []Trainer `json:"trainers"`
}

// Team is a team with its roster resolved against the live players list
type Team struct {
	UUID     string    `json:"uuid"`
	Name     string    `json:"name"`
	Story    string    `json:"story"`
	ImageURL *MediaRef `json:"imageUrl,omitempty"`
	Players  []Player  `json:"players"`
	Trainers []Trainer `json:"trainers"`
}

// PlayerIDs returns the uuids of the resolved roster in order
func (t Team) PlayerIDs() []string {
	ids := make([]string, 0, len(t.Players))
	for _, p := range t.Players {
		ids = append(ids, p.UUID)
	}
	return ids
}

// Record converts a resolved team back to its stored form
func (t Team) Record() TeamRecord {
	return TeamRecord{
		UUID:      t.UUID,
		Name:      t.Name,
		Story:     t.Story,
		ImageURL:  t.ImageURL,
		PlayerIDs: t.PlayerIDs(),
		Trainers:  t.Trainers,
	}
}
