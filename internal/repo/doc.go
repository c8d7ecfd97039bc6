// Package repo — доступ к PostgreSQL через pgx.
//
// Репозитории:
//   - PostRepo        — посты и комментарии, состояния, выборка due-постов
//   - IntegrationRepo — интеграции и их токены
//   - PlugRepo        — global plug-и и webhooks
//
// Схема применяется через Migrate (schema.go). Отсутствующие записи
// возвращают ErrNotFound.
package repo
