package models

// User represents a user profile document
type User struct {
	UUID     string   `json:"uuid"`
	Name     string   `json:"name"`
	Nickname string   `json:"nickname"`
	Email    string   `json:"email"`
	Picture  string   `json:"picture,omitempty"`
	IsAdmin  bool     `json:"isAdmin"`
	IsOwner  bool     `json:"isOwner"`
	Players  []string `json:"players,omitempty"`
	Teams    []string `json:"teams,omitempty"`
}
