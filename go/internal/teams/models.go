package teams

import "github.com/mcdev12/leaguesync/go/internal/models"

// CreateTeamRequest holds the fields a new team is stored with. Players are
// referenced by uuid.
type CreateTeamRequest struct {
	Name      string
	Story     string
	ImageURL  *models.MediaRef
	PlayerIDs []string
	Trainers  []models.Trainer
}

func (r CreateTeamRequest) record() models.TeamRecord {
	return models.TeamRecord{
		Name:      r.Name,
		Story:     r.Story,
		ImageURL:  r.ImageURL,
		PlayerIDs: r.PlayerIDs,
		Trainers:  r.Trainers,
	}
}
