package domain

import "time"

// PostItem — одна запись в цепочке публикации.
//
// Индекс 0 в списке — основной пост, индексы ≥1 — комментарии
// в порядке создания. Список загружается один раз в начале run
// и дальше не перечитывается.
type PostItem struct {
	// ID — идентификатор записи.
	ID string `json:"id"`

	// OrganizationID — организация-владелец.
	OrganizationID string `json:"organization_id"`

	// Group — группа постов, созданных одним действием пользователя.
	Group string `json:"group,omitempty"`

	// ParentPostID — основной пост для комментария (пусто у основного).
	ParentPostID string `json:"parent_post_id,omitempty"`

	// Integration — целевой аккаунт.
	Integration Integration `json:"integration"`

	// Content — текст публикации.
	Content string `json:"content"`

	// Settings — сериализованные JSON-настройки поста.
	Settings string `json:"settings,omitempty"`

	// State — сохранённое состояние на момент чтения.
	State PostState `json:"state"`

	// Delay — задержка перед публикацией комментария, в минутах.
	Delay int `json:"delay,omitempty"`

	// IntervalInDays — период повтора; 0 означает разовую публикацию.
	IntervalInDays int `json:"interval_in_days,omitempty"`

	// PublishDate — запланированное время публикации.
	PublishDate time.Time `json:"publish_date"`

	// ReleaseID / ReleaseURL — внешний id и ссылка после публикации.
	ReleaseID  string `json:"release_id,omitempty"`
	ReleaseURL string `json:"release_url,omitempty"`

	// Error — причина последней ошибки.
	Error string `json:"error,omitempty"`
}

// IsComment возвращает true для комментария.
func (p *PostItem) IsComment() bool {
	return p.ParentPostID != ""
}

// IsRecurring возвращает true, если пост публикуется повторно.
func (p *PostItem) IsRecurring() bool {
	return p.IntervalInDays > 0
}

// CommentDelay возвращает задержку перед комментарием.
func (p *PostItem) CommentDelay() time.Duration {
	if p.Delay <= 0 {
		return 0
	}
	return time.Duration(p.Delay) * time.Minute
}

// UntilPublish возвращает время до публикации относительно now.
// Для дат в прошлом возвращает 0.
func (p *PostItem) UntilPublish(now time.Time) time.Duration {
	d := p.PublishDate.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// PublishResult — результат публикации одной записи у провайдера.
type PublishResult struct {
	// ItemID — запись, к которой относится результат.
	ItemID string `json:"item_id"`

	// ExternalID — id поста у провайдера.
	ExternalID string `json:"external_id"`

	// ReleaseURL — публичная ссылка.
	ReleaseURL string `json:"release_url"`
}

// PublicationRequest — вход одного выполнения workflow.
type PublicationRequest struct {
	// TaskRoute — очередь задач провайдера.
	TaskRoute string `json:"task_route"`

	PostID         string `json:"post_id"`
	OrganizationID string `json:"organization_id"`

	// PublishImmediately — публиковать сразу, без проверки QUEUE и ожидания даты.
	PublishImmediately bool `json:"publish_immediately"`
}

// Notification — in-app уведомление пользователю.
type Notification struct {
	OrganizationID string   `json:"organization_id"`
	Title          string   `json:"title"`
	Body           string   `json:"body"`
	Popup          bool     `json:"popup"`
	IsSuccess      bool     `json:"is_success"`
	Severity       Severity `json:"severity"`
}

// Webhook — подписка организации на события публикации.
type Webhook struct {
	ID             string   `json:"id"`
	OrganizationID string   `json:"organization_id"`
	Name           string   `json:"name"`
	URL            string   `json:"url"`
	IntegrationIDs []string `json:"integration_ids,omitempty"`
}

// Matches возвращает true, если webhook подписан на интеграцию.
// Пустой список означает подписку на все интеграции.
func (w *Webhook) Matches(integrationID string) bool {
	if len(w.IntegrationIDs) == 0 {
		return true
	}
	for _, id := range w.IntegrationIDs {
		if id == integrationID {
			return true
		}
	}
	return false
}
