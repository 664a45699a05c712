package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/leaguesync/go/internal/models"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName trims a display name and puts it in NFC form so names typed
// on different keyboards compare equal
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ParsePlayer validates and decodes a players document
func (v *Validator) ParsePlayer(doc models.RawDocument) (models.Player, error) {
	var p models.Player
	if err := v.decode(models.CollectionPlayers, doc, &p); err != nil {
		return models.Player{}, err
	}
	p.UUID = doc.ID
	p.Name = NormalizeName(p.Name)
	if p.Positions == nil {
		p.Positions = []int{}
	}
	return p, nil
}

// ParseTeam validates and decodes a teams document into its stored form
func (v *Validator) ParseTeam(doc models.RawDocument) (models.TeamRecord, error) {
	var t models.TeamRecord
	if err := v.decode(models.CollectionTeams, doc, &t); err != nil {
		return models.TeamRecord{}, err
	}
	t.UUID = doc.ID
	t.Name = NormalizeName(t.Name)
	if t.PlayerIDs == nil {
		t.PlayerIDs = []string{}
	}
	if t.Trainers == nil {
		t.Trainers = []models.Trainer{}
	}
	return t, nil
}

type gameDocument struct {
	GameDate    json.RawMessage `json:"gameDate"`
	Local       string          `json:"local"`
	Visitor     string          `json:"visitor"`
	LocalRuns   flexInt         `json:"localRuns"`
	VisitorRuns flexInt         `json:"visitorRuns"`
	Story       string          `json:"story"`
}

// ParseGame validates and decodes a games document into its stored form
func (v *Validator) ParseGame(doc models.RawDocument) (models.GameRecord, error) {
	var g gameDocument
	if err := v.decode(models.CollectionGames, doc, &g); err != nil {
		return models.GameRecord{}, err
	}
	date, err := parseTimestamp(g.GameDate)
	if err != nil {
		return models.GameRecord{}, &ValidationError{Collection: models.CollectionGames, ID: doc.ID, Err: err}
	}
	return models.GameRecord{
		UUID:        doc.ID,
		GameDate:    date,
		LocalID:     g.Local,
		LocalRuns:   int(g.LocalRuns),
		VisitorID:   g.Visitor,
		VisitorRuns: int(g.VisitorRuns),
		Story:       g.Story,
	}, nil
}

// ParseVote validates and decodes a votes document
func (v *Validator) ParseVote(doc models.RawDocument) (models.Vote, error) {
	var vote models.Vote
	if err := v.decode(models.CollectionVotes, doc, &vote); err != nil {
		return models.Vote{}, err
	}
	vote.UUID = doc.ID
	return vote, nil
}

// ParseUser validates and decodes a users document
func (v *Validator) ParseUser(doc models.RawDocument) (models.User, error) {
	var u models.User
	if err := v.decode(models.CollectionUsers, doc, &u); err != nil {
		return models.User{}, err
	}
	u.UUID = doc.ID
	u.Name = NormalizeName(u.Name)
	u.Nickname = NormalizeName(u.Nickname)
	return u, nil
}

func (v *Validator) decode(collection string, doc models.RawDocument, out any) error {
	data, err := v.Validate(collection, doc)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ValidationError{Collection: collection, ID: doc.ID, Err: err}
	}
	return nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// parseTimestamp accepts an RFC 3339 or date-only string, or an exported
// Firestore timestamp object
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var ts struct {
			Seconds     int64 `json:"seconds"`
			Nanoseconds int64 `json:"nanoseconds"`
		}
		if err := json.Unmarshal(raw, &ts); err != nil {
			return time.Time{}, fmt.Errorf("failed to decode timestamp: %w", err)
		}
		return time.Unix(ts.Seconds, ts.Nanoseconds).UTC(), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode date: %w", err)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// flexInt decodes from a JSON number or a numeric string. Score forms have
// historically written runs as strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", s, err)
		}
		*f = flexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}
