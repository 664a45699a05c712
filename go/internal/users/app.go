package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/mcdev12/leaguesync/go/internal/livesync"
	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/rs/zerolog/log"
)

// UsersRepository defines what the app layer needs from the repository
type UsersRepository interface {
	CreateProfile(ctx context.Context, u models.User) (string, error)
	CreateUserWithID(ctx context.Context, u models.User) error
	GetUser(ctx context.Context, id string) (models.User, error)
	UpdateUser(ctx context.Context, u models.User) error
	SetFlag(ctx context.Context, id, field string, value bool) error
	DeleteUser(ctx context.Context, id string) error
}

// App handles users business logic
type App struct {
	repo UsersRepository
	live *livesync.Stream[models.User]
}

// NewApp creates a new users App
func NewApp(repo UsersRepository, live *livesync.Stream[models.User]) *App {
	return &App{
		repo: repo,
		live: live,
	}
}

// Live is the synchronized users list
func (a *App) Live() *livesync.Stream[models.User] {
	return a.live
}

// CreateUser stores a bare profile, name and nickname only, under a new id
func (a *App) CreateUser(ctx context.Context, u models.User) (string, error) {
	if strings.TrimSpace(u.Name) == "" {
		return "", fmt.Errorf("%w: name is required", models.ErrValidation)
	}

	id, err := a.repo.CreateProfile(ctx, u)
	if err != nil {
		return "", err
	}

	log.Info().Str("user_id", id).Str("name", u.Name).Msg("created user")
	return id, nil
}

// Register creates the users document of a signed-in account under the
// account id. Roles start cleared.
func (a *App) Register(ctx context.Context, uid string, req RegisterRequest) error {
	if err := models.RequireID(models.CollectionUsers, uid); err != nil {
		return err
	}
	if strings.TrimSpace(req.Email) == "" {
		return fmt.Errorf("%w: email is required", models.ErrValidation)
	}
	if existing, ok := a.FindByEmail(req.Email); ok && existing.UUID != uid {
		return fmt.Errorf("%w: %s", ErrEmailTaken, req.Email)
	}

	u := models.User{
		UUID:     uid,
		Email:    req.Email,
		Name:     req.Name,
		Nickname: req.Nickname,
		Picture:  req.Picture,
	}
	if err := a.repo.CreateUserWithID(ctx, u); err != nil {
		return err
	}

	log.Info().Str("user_id", uid).Str("email", req.Email).Msg("registered user")
	return nil
}

func (a *App) GetUser(ctx context.Context, id string) (models.User, error) {
	return a.repo.GetUser(ctx, id)
}

// FindUser looks a user up in the current live list
func (a *App) FindUser(id string) (models.User, bool) {
	for _, u := range a.live.Current() {
		if u.UUID == id {
			return u, true
		}
	}
	return models.User{}, false
}

// FindByEmail looks a user up in the current live list, ignoring case
func (a *App) FindByEmail(email string) (models.User, bool) {
	for _, u := range a.live.Current() {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return models.User{}, false
}

func (a *App) UpdateUser(ctx context.Context, u models.User) error {
	if err := models.RequireID(models.CollectionUsers, u.UUID); err != nil {
		return err
	}
	return a.repo.UpdateUser(ctx, u)
}

func (a *App) DeleteUser(ctx context.Context, u models.User) error {
	if err := models.RequireID(models.CollectionUsers, u.UUID); err != nil {
		return err
	}
	if err := a.repo.DeleteUser(ctx, u.UUID); err != nil {
		return err
	}
	log.Info().Str("user_id", u.UUID).Msg("deleted user")
	return nil
}

func (a *App) SetAdmin(ctx context.Context, id string, admin bool) error {
	if err := models.RequireID(models.CollectionUsers, id); err != nil {
		return err
	}
	return a.repo.SetFlag(ctx, id, "isAdmin", admin)
}

func (a *App) SetOwner(ctx context.Context, id string, owner bool) error {
	if err := models.RequireID(models.CollectionUsers, id); err != nil {
		return err
	}
	return a.repo.SetFlag(ctx, id, "isOwner", owner)
}

// Status returns the user's roles from the live list. Unknown users have no
// roles.
func (a *App) Status(id string) Status {
	u, _ := a.FindUser(id)
	return Status{IsAdmin: u.IsAdmin, IsOwner: u.IsOwner}
}

// WatchStatus calls fn with the user's roles now and whenever they change,
// until cancel is called
func (a *App) WatchStatus(id string, fn func(Status)) (cancel func()) {
	var last *Status
	return a.live.Subscribe(func(list []models.User) {
		var s Status
		for _, u := range list {
			if u.UUID == id {
				s = Status{IsAdmin: u.IsAdmin, IsOwner: u.IsOwner}
				break
			}
		}
		if last != nil && *last == s {
			return
		}
		last = &s
		fn(s)
	})
}
