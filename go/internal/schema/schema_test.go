package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(id string, attrs map[string]any) models.RawDocument {
	return models.RawDocument{ID: id, Attributes: attrs}
}

func TestParsePlayer(t *testing.T) {
	v := MustNew()

	p, err := v.ParsePlayer(doc("p1", map[string]any{
		"name":      "  Ana ",
		"positions": []any{float64(1), float64(6)},
		"imageUrl":  "https://img/ana.png",
		"legacy":    true,
	}))
	require.NoError(t, err)
	assert.Equal(t, "p1", p.UUID)
	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, []int{1, 6}, p.Positions)
	require.NotNil(t, p.ImageURL)
	assert.Equal(t, "https://img/ana.png", p.ImageURL.URLMedium)
}

func TestParsePlayer_Defaults(t *testing.T) {
	v := MustNew()

	p, err := v.ParsePlayer(doc("p2", map[string]any{"name": "Bo"}))
	require.NoError(t, err)
	assert.Equal(t, []int{}, p.Positions)
	assert.Nil(t, p.ImageURL)
}

func TestParsePlayer_Invalid(t *testing.T) {
	v := MustNew()

	_, err := v.ParsePlayer(doc("p3", map[string]any{"positions": []any{1}}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDocument))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "players", verr.Collection)
	assert.Equal(t, "p3", verr.ID)

	_, err = v.ParsePlayer(doc("p4", map[string]any{"name": "Cy", "positions": "pitcher"}))
	assert.True(t, errors.Is(err, ErrInvalidDocument))
}

func TestParsePlayer_NormalizesToNFC(t *testing.T) {
	v := MustNew()

	p, err := v.ParsePlayer(doc("p5", map[string]any{"name": "Jose\u0301"}))
	require.NoError(t, err)
	assert.Equal(t, "Jos\u00e9", p.Name)
}

func TestParseTeam(t *testing.T) {
	v := MustNew()

	team, err := v.ParseTeam(doc("t1", map[string]any{
		"name":    "Tigers",
		"players": []any{"a", "b"},
		"imageUrl": map[string]any{
			"id": 4, "url_small": "s", "url_medium": "m", "url_large": "l", "url_thumbnail": "t",
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, "t1", team.UUID)
	assert.Equal(t, []string{"a", "b"}, team.PlayerIDs)
	assert.Equal(t, "", team.Story)
	assert.Equal(t, []models.Trainer{}, team.Trainers)
	assert.Equal(t, int64(4), team.ImageURL.ID)
}

func TestParseTeam_NullPlayers(t *testing.T) {
	v := MustNew()

	team, err := v.ParseTeam(doc("t2", map[string]any{"name": "Lions", "players": nil}))
	require.NoError(t, err)
	assert.Equal(t, []string{}, team.PlayerIDs)
}

func TestParseGame(t *testing.T) {
	v := MustNew()

	g, err := v.ParseGame(doc("g1", map[string]any{
		"gameDate":    "2024-05-04",
		"local":       "t1",
		"visitor":     "t2",
		"localRuns":   "3",
		"visitorRuns": 5,
	}))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC), g.GameDate)
	assert.Equal(t, "t1", g.LocalID)
	assert.Equal(t, "t2", g.VisitorID)
	assert.Equal(t, 3, g.LocalRuns)
	assert.Equal(t, 5, g.VisitorRuns)
}

func TestParseGame_Timestamps(t *testing.T) {
	v := MustNew()
	when := time.Date(2024, 6, 1, 18, 30, 0, 0, time.UTC)

	g, err := v.ParseGame(doc("g2", map[string]any{"gameDate": when}))
	require.NoError(t, err)
	assert.Equal(t, when, g.GameDate)

	g, err = v.ParseGame(doc("g3", map[string]any{
		"gameDate": map[string]any{"seconds": when.Unix(), "nanoseconds": 0},
	}))
	require.NoError(t, err)
	assert.Equal(t, when, g.GameDate)

	_, err = v.ParseGame(doc("g4", map[string]any{"gameDate": "next tuesday"}))
	assert.True(t, errors.Is(err, ErrInvalidDocument))

	_, err = v.ParseGame(doc("g5", map[string]any{"local": "t1"}))
	assert.True(t, errors.Is(err, ErrInvalidDocument))
}

func TestParseVoteAndUser(t *testing.T) {
	v := MustNew()

	vote, err := v.ParseVote(doc("v1", map[string]any{
		"game": "g1", "category": models.VoteCategoryWinnerTeam, "reference": "t1",
	}))
	require.NoError(t, err)
	assert.Equal(t, models.Vote{UUID: "v1", Game: "g1", Category: "winnerTeam", Reference: "t1"}, vote)

	u, err := v.ParseUser(doc("u1", map[string]any{"name": "Ana", "nickname": "ace"}))
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UUID)
	assert.False(t, u.IsAdmin)
	assert.False(t, u.IsOwner)
	assert.Empty(t, u.Email)

	_, err = v.ParseVote(doc("v2", map[string]any{"category": "mvp"}))
	assert.True(t, errors.Is(err, ErrInvalidDocument))
}

func TestEncodeRoundTrip(t *testing.T) {
	v := MustNew()

	rec := models.TeamRecord{Name: "Tigers", PlayerIDs: []string{"a"}, ImageURL: models.MediaFromURL("u")}
	team, err := v.ParseTeam(doc("t1", TeamAttributes(rec)))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, team.PlayerIDs)
	assert.Equal(t, "u", team.ImageURL.URLSmall)

	game := models.GameRecord{UUID: "g1", GameDate: time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC), LocalID: "t1"}
	attrs := GameAttributes(game)
	assert.NotContains(t, attrs, "uuid")
	assert.Equal(t, "2024-05-04", attrs["gameDate"])

	parsed, err := v.ParseGame(doc("g1", attrs))
	require.NoError(t, err)
	assert.Equal(t, game, parsed)
}

func TestUserProfileAttributes(t *testing.T) {
	attrs := UserProfileAttributes(models.User{Name: "Ana", Nickname: "ace", IsAdmin: true, Email: "a@b.c"})
	assert.Equal(t, map[string]any{"name": "Ana", "nickname": "ace"}, attrs)
}
