package publication

import (
	"errors"

	"github.com/shaiso/postflow/internal/activity"
	"go.temporal.io/sdk/temporal"
)

// Failure — классифицированная ошибка activity.
//
// Закрытый набор вариантов: RefreshTokenNeeded, BadBody, OtherFailure.
type Failure interface {
	error
	isFailure()
}

// RefreshTokenNeeded — токен интеграции нужно обновить, шаг можно повторить.
type RefreshTokenNeeded struct {
	Message string
}

// BadBody — провайдер отклонил содержимое; для текущего поста это конец.
type BadBody struct {
	Message string
}

// OtherFailure — любая другая ошибка после исчерпания транспортных повторов.
type OtherFailure struct {
	Detail string
}

func (RefreshTokenNeeded) isFailure() {}
func (BadBody) isFailure()            {}
func (OtherFailure) isFailure()       {}

func (f RefreshTokenNeeded) Error() string { return withMessage("refresh token needed", f.Message) }
func (f BadBody) Error() string            { return withMessage("bad body", f.Message) }
func (f OtherFailure) Error() string       { return f.Detail }

func withMessage(prefix, msg string) string {
	if msg == "" {
		return prefix
	}
	return prefix + ": " + msg
}

// classify превращает ошибку activity в Failure по типу ApplicationError.
func classify(err error) Failure {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		switch appErr.Type() {
		case activity.ErrTypeRefreshToken:
			return RefreshTokenNeeded{Message: appErr.Message()}
		case activity.ErrTypeBadBody:
			return BadBody{Message: appErr.Message()}
		}
	}
	return OtherFailure{Detail: err.Error()}
}

// failureKind — метка варианта для логов.
func failureKind(f Failure) string {
	switch f.(type) {
	case RefreshTokenNeeded:
		return activity.ErrTypeRefreshToken
	case BadBody:
		return activity.ErrTypeBadBody
	default:
		return "other"
	}
}
