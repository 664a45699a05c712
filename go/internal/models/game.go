package models

import "time"

// GameRecord is a game as stored: both sides reference a team uuid
type GameRecord struct {
	UUID        string    `json:"uuid"`
	GameDate    time.Time `json:"gameDate"`
	LocalID     string    `json:"local"`
	LocalRuns   int       `json:"localRuns"`
	VisitorID   string    `json:"visitor"`
	VisitorRuns int       `json:"visitorRuns"`
	Story       string    `json:"story"`
}

// Game is a game with both sides resolved. Local and Visitor are nil when the
// referenced team is not present in the teams list.
type Game struct {
	UUID        string    `json:"uuid"`
	GameDate    time.Time `json:"gameDate"`
	Local       *Team     `json:"local"`
	LocalRuns   int       `json:"localRuns"`
	Visitor     *Team     `json:"visitor"`
	VisitorRuns int       `json:"visitorRuns"`
	Story       string    `json:"story"`
}

// Record converts a resolved game back to its stored form. Unresolved sides
// are written as empty references.
func (g Game) Record() GameRecord {
	rec := GameRecord{
		UUID:        g.UUID,
		GameDate:    g.GameDate,
		LocalRuns:   g.LocalRuns,
		VisitorRuns: g.VisitorRuns,
		Story:       g.Story,
	}
	if g.Local != nil {
		rec.LocalID = g.Local.UUID
	}
	if g.Visitor != nil {
		rec.VisitorID = g.Visitor.UUID
	}
	return rec
}
