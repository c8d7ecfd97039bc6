package scheduler

import "errors"

// Ошибки планировщика.
var (
	// ErrNoDispatcher — не задан ни publisher, ни starter.
	ErrNoDispatcher = errors.New("no publisher or starter configured")
)
