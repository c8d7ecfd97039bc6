// Package domain содержит модель данных публикации.
//
// Основные типы:
//   - PostItem, Integration — данные поста и целевого аккаунта
//   - PublicationRequest   — вход одного выполнения workflow
//   - PublishResult        — результат публикации у провайдера
//   - PlugTask, GlobalPlug — отложенные действия после публикации
//   - Notification, Webhook
//
// Пакет не зависит от инфраструктуры и используется всеми остальными.
package domain
