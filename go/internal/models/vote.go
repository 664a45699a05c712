package models

// VoteCategoryWinnerTeam is the category of a vote for the winning team of a
// game; Reference then holds a team uuid.
const VoteCategoryWinnerTeam = "winnerTeam"

// Vote represents a document in the votes collection
type Vote struct {
	UUID      string `json:"uuid"`
	Game      string `json:"game"`
	Category  string `json:"category"`
	Reference string `json:"reference"`
	User      string `json:"user,omitempty"`
}
