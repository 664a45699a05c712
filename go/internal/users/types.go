package users

// RegisterRequest is the profile written when a signed-in account first
// gets a users document
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Picture  string `json:"picture"`
}

// Status holds the role flags of a user
type Status struct {
	IsAdmin bool `json:"isAdmin"`
	IsOwner bool `json:"isOwner"`
}
