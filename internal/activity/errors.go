package activity

import (
	"errors"

	"github.com/shaiso/postflow/internal/provider"
	"go.temporal.io/sdk/temporal"
)

// Типы ApplicationError, которые понимает workflow.
const (
	ErrTypeRefreshToken = "refresh_token"
	ErrTypeBadBody      = "bad_body"

	// errTypeUnknownProvider — интеграция ссылается на незарегистрированный провайдер.
	errTypeUnknownProvider = "unknown_provider"
)

// ErrMissingDependency — Activities создан без обязательной зависимости.
var ErrMissingDependency = errors.New("activity dependency not configured")

// providerFailure переводит ошибку провайдера в ошибку activity.
func providerFailure(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, provider.ErrRefreshNeeded):
		return temporal.NewApplicationError(provider.RejectionMessage(err), ErrTypeRefreshToken)
	case errors.Is(err, provider.ErrBadBody):
		return temporal.NewApplicationError(provider.RejectionMessage(err), ErrTypeBadBody)
	case errors.Is(err, provider.ErrUnknownProvider):
		return temporal.NewNonRetryableApplicationError(err.Error(), errTypeUnknownProvider, err)
	default:
		return err
	}
}

// failureKind возвращает label метрики для ошибки провайдера.
func failureKind(err error) string {
	switch {
	case errors.Is(err, provider.ErrRefreshNeeded):
		return ErrTypeRefreshToken
	case errors.Is(err, provider.ErrBadBody):
		return ErrTypeBadBody
	default:
		return "other"
	}
}
