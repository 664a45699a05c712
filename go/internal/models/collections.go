package models

// Collection names in the document store
const (
	CollectionPlayers = "players"
	CollectionTeams   = "teams"
	CollectionGames   = "games"
	CollectionVotes   = "votes"
	CollectionUsers   = "users"
)

// Collections lists every synchronized collection in subscription order
var Collections = []string{
	CollectionPlayers,
	CollectionUsers,
	CollectionVotes,
	CollectionTeams,
	CollectionGames,
}

func IsCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}
