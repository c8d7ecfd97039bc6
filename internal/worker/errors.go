package worker

import "errors"

// Ошибки воркера.
var (
	// ErrNoTaskQueue — не задана очередь workflow.
	ErrNoTaskQueue = errors.New("task queue is required")

	// ErrWorkerStopped — воркер остановлен.
	ErrWorkerStopped = errors.New("worker stopped")
)
