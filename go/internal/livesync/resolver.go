package livesync

import "github.com/mcdev12/leaguesync/go/internal/models"

// ResolveMany returns the dependencies whose key appears in ids, in the
// order of deps. Ids with no matching dependency are dropped.
func ResolveMany[D any, K comparable](ids []K, deps []D, key func(D) K) []D {
	wanted := make(map[K]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	out := make([]D, 0, len(ids))
	for _, d := range deps {
		if _, ok := wanted[key(d)]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Index maps each key to its first dependency
func Index[D any, K comparable](deps []D, key func(D) K) map[K]D {
	idx := make(map[K]D, len(deps))
	for _, d := range deps {
		k := key(d)
		if _, exists := idx[k]; !exists {
			idx[k] = d
		}
	}
	return idx
}

// ResolveOne looks id up in index and returns a copy, or nil when absent
func ResolveOne[D any, K comparable](id K, index map[K]D) *D {
	d, ok := index[id]
	if !ok {
		return nil
	}
	return &d
}

func playerKey(p models.Player) string { return p.UUID }

func teamKey(t models.Team) string { return t.UUID }

// ResolveTeam replaces the team's player ids with the matching players
func ResolveTeam(rec models.TeamRecord, players []models.Player) models.Team {
	return models.Team{
		UUID:     rec.UUID,
		Name:     rec.Name,
		Story:    rec.Story,
		ImageURL: rec.ImageURL,
		Players:  ResolveMany(rec.PlayerIDs, players, playerKey),
		Trainers: rec.Trainers,
	}
}

func ResolveTeams(records []models.TeamRecord, players []models.Player) []models.Team {
	teams := make([]models.Team, 0, len(records))
	for _, rec := range records {
		teams = append(teams, ResolveTeam(rec, players))
	}
	return teams
}

// ResolveGame attaches the local and visitor teams; a side whose team is not
// in index stays nil
func ResolveGame(rec models.GameRecord, index map[string]models.Team) models.Game {
	return models.Game{
		UUID:        rec.UUID,
		GameDate:    rec.GameDate,
		Local:       ResolveOne(rec.LocalID, index),
		LocalRuns:   rec.LocalRuns,
		Visitor:     ResolveOne(rec.VisitorID, index),
		VisitorRuns: rec.VisitorRuns,
		Story:       rec.Story,
	}
}

func ResolveGames(records []models.GameRecord, teams []models.Team) []models.Game {
	index := Index(teams, teamKey)
	games := make([]models.Game, 0, len(records))
	for _, rec := range records {
		games = append(games, ResolveGame(rec, index))
	}
	return games
}
