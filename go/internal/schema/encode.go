package schema

import (
	"time"

	"github.com/mcdev12/leaguesync/go/internal/models"
)

// PlayerAttributes is the stored form of a player. The uuid is the document
// id and is never written as an attribute.
func PlayerAttributes(p models.Player) map[string]any {
	positions := p.Positions
	if positions == nil {
		positions = []int{}
	}
	attrs := map[string]any{
		"name":      NormalizeName(p.Name),
		"positions": positions,
	}
	if p.ImageURL != nil {
		attrs["imageUrl"] = mediaAttributes(p.ImageURL)
	}
	return attrs
}

// TeamAttributes writes the roster as an array of player uuids
func TeamAttributes(t models.TeamRecord) map[string]any {
	playerIDs := t.PlayerIDs
	if playerIDs == nil {
		playerIDs = []string{}
	}
	trainers := make([]any, 0, len(t.Trainers))
	for _, tr := range t.Trainers {
		trainers = append(trainers, map[string]any{
			"id":      tr.ID,
			"name":    tr.Name,
			"surname": tr.Surname,
			"age":     tr.Age,
		})
	}
	attrs := map[string]any{
		"name":     NormalizeName(t.Name),
		"story":    t.Story,
		"players":  playerIDs,
		"trainers": trainers,
	}
	if t.ImageURL != nil {
		attrs["imageUrl"] = mediaAttributes(t.ImageURL)
	}
	return attrs
}

// GameAttributes writes both sides as team uuids. Dates without a clock
// component are written date-only.
func GameAttributes(g models.GameRecord) map[string]any {
	return map[string]any{
		"gameDate":    FormatGameDate(g.GameDate),
		"local":       g.LocalID,
		"visitor":     g.VisitorID,
		"localRuns":   g.LocalRuns,
		"visitorRuns": g.VisitorRuns,
		"story":       g.Story,
	}
}

// FormatGameDate renders a game date the way it is stored
func FormatGameDate(t time.Time) string {
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}

func VoteAttributes(v models.Vote) map[string]any {
	attrs := map[string]any{
		"game":      v.Game,
		"category":  v.Category,
		"reference": v.Reference,
	}
	if v.User != "" {
		attrs["user"] = v.User
	}
	return attrs
}

// UserProfileAttributes is what a new profile is created with: only the
// name and nickname. Everything else is owned by registration or admins.
func UserProfileAttributes(u models.User) map[string]any {
	return map[string]any{
		"name":     NormalizeName(u.Name),
		"nickname": NormalizeName(u.Nickname),
	}
}

// UserAttributes is the full stored form of a user
func UserAttributes(u models.User) map[string]any {
	players := u.Players
	if players == nil {
		players = []string{}
	}
	teams := u.Teams
	if teams == nil {
		teams = []string{}
	}
	return map[string]any{
		"name":     NormalizeName(u.Name),
		"nickname": NormalizeName(u.Nickname),
		"email":    u.Email,
		"picture":  u.Picture,
		"isAdmin":  u.IsAdmin,
		"isOwner":  u.IsOwner,
		"players":  players,
		"teams":    teams,
	}
}

func mediaAttributes(m *models.MediaRef) map[string]any {
	return map[string]any{
		"id":            m.ID,
		"url_small":     m.URLSmall,
		"url_medium":    m.URLMedium,
		"url_large":     m.URLLarge,
		"url_thumbnail": m.URLThumbnail,
	}
}
