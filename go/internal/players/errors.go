package players

import "errors"

// ErrPlayerNotFound is returned by Get when no player has the requested id
var ErrPlayerNotFound = errors.New("player not found")
