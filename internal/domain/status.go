package domain

// PostState — состояние публикации поста.
//
// Жизненный цикл:
//
//	QUEUE → PUBLISHED
//	      ↘ ERROR
//
// Повторная запись того же состояния не меняет строку (идемпотентно).
type PostState string

const (
	// PostStateQueue — пост ждёт публикации.
	PostStateQueue PostState = "QUEUE"

	// PostStatePublished — пост опубликован у провайдера.
	PostStatePublished PostState = "PUBLISHED"

	// PostStateError — публикация завершилась ошибкой.
	PostStateError PostState = "ERROR"
)

// IsTerminal возвращает true, если состояние финальное.
func (s PostState) IsTerminal() bool {
	switch s {
	case PostStatePublished, PostStateError:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление PostState.
func (s PostState) String() string {
	return string(s)
}

// ParsePostState парсит строку в PostState.
// Неизвестные значения трактуются как QUEUE.
func ParsePostState(s string) PostState {
	switch s {
	case "PUBLISHED":
		return PostStatePublished
	case "ERROR":
		return PostStateError
	default:
		return PostStateQueue
	}
}

// Severity — уровень in-app уведомления.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityFail    Severity = "fail"
)
