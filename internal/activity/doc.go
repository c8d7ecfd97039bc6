// Package activity — activities workflow публикации поста.
//
// Activities — единственное место с побочными эффектами: чтение и запись
// постов в PostgreSQL, вызовы провайдеров, публикация уведомлений и webhooks
// в RabbitMQ. Workflow ссылается на них через method values
// (*Activities)(nil).PostSocial и т.п.; имя activity совпадает с именем метода.
//
// Отказы провайдера превращаются в ApplicationError с типами
// ErrTypeRefreshToken и ErrTypeBadBody. Эти типы не повторяются retry policy
// и классифицируются workflow. Остальные ошибки возвращаются как есть
// и повторяются транспортом.
package activity
