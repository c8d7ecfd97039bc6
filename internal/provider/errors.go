package provider

import "errors"

// Ошибки провайдеров.
var (
	// ErrRefreshNeeded — токен интеграции недействителен, нужен refresh.
	ErrRefreshNeeded = errors.New("refresh token needed")

	// ErrBadBody — провайдер отклонил содержимое публикации.
	ErrBadBody = errors.New("bad body")

	// ErrUnknownProvider — провайдер не зарегистрирован.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrBridgeRequest — запрос к bridge-сервису провайдера не удался.
	ErrBridgeRequest = errors.New("bridge request failed")

	// ErrInvalidBridgeConfig — строка описания провайдера не разобрана.
	ErrInvalidBridgeConfig = errors.New("invalid bridge config")
)

// RejectionError — отказ провайдера с сообщением для пользователя.
// Reason — ErrRefreshNeeded или ErrBadBody.
type RejectionError struct {
	Reason  error
	Message string
}

func (e *RejectionError) Error() string {
	if e.Message == "" {
		return e.Reason.Error()
	}
	return e.Reason.Error() + ": " + e.Message
}

func (e *RejectionError) Unwrap() error {
	return e.Reason
}

// RefreshNeeded создаёт ошибку просроченного токена.
func RefreshNeeded(message string) error {
	return &RejectionError{Reason: ErrRefreshNeeded, Message: message}
}

// BadBody создаёт ошибку отклонённого содержимого.
func BadBody(message string) error {
	return &RejectionError{Reason: ErrBadBody, Message: message}
}

// RejectionMessage возвращает сообщение провайдера, если err — RejectionError.
func RejectionMessage(err error) string {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej.Message
	}
	return ""
}
