package livesync

import (
	"errors"
	"fmt"
)

// ErrEngineStopped is returned by lifecycle calls once Run has returned
var ErrEngineStopped = errors.New("sync engine stopped")

// SubscriptionError reports a failed or dropped push channel for one
// collection. The collection keeps its last published list.
type SubscriptionError struct {
	Collection string
	Err        error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription to %s failed: %v", e.Collection, e.Err)
}

func (e *SubscriptionError) Unwrap() error {
	return e.Err
}
