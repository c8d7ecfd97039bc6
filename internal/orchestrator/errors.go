package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrExecutionNotFound — выполнение workflow для поста не найдено.
	ErrExecutionNotFound = errors.New("post workflow execution not found")

	// ErrInvalidRequest — в запросе на публикацию нет поста, организации или очереди.
	ErrInvalidRequest = errors.New("invalid publication request")

	// ErrOrchestratorStopped — оркестратор остановлен.
	ErrOrchestratorStopped = errors.New("orchestrator stopped")
)
