package domain

import "time"

// Integration — подключённый аккаунт социальной сети.
//
// Каждое выполнение workflow держит собственную копию интеграции.
// Token меняется только после успешного обновления и только в этой копии.
type Integration struct {
	ID                 string `json:"id"`
	OrganizationID     string `json:"organization_id"`
	Name               string `json:"name"`
	ProviderIdentifier string `json:"provider_identifier"`

	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenExpiresAt — время истечения access token, если провайдер его сообщает.
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`

	Disabled      bool `json:"disabled"`
	RefreshNeeded bool `json:"refresh_needed"`
}

// CanPublish возвращает true, если интеграция пригодна для публикации.
func (i *Integration) CanPublish() bool {
	return !i.Disabled && !i.RefreshNeeded
}

// Token — результат обновления credentials.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresIn — срок жизни access token в секундах (0 — неизвестно).
	ExpiresIn int `json:"expires_in,omitempty"`
}

// IsEmpty возвращает true, если токен получить не удалось.
func (t Token) IsEmpty() bool {
	return t.AccessToken == ""
}

// ExpiresAt вычисляет время истечения относительно now.
func (t Token) ExpiresAt(now time.Time) *time.Time {
	if t.ExpiresIn <= 0 {
		return nil
	}
	at := now.Add(time.Duration(t.ExpiresIn) * time.Second)
	return &at
}
