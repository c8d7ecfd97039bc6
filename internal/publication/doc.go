// Package publication — Temporal workflow публикации поста.
//
// PostWorkflow ведёт один пост от запланированной даты до публикации:
//  1. загружает пост и комментарии, проверяет состояние QUEUE
//  2. спит до даты публикации (кроме публикации «сейчас»)
//  3. проверяет интеграцию (refresh_needed, disabled)
//  4. публикует основной пост, затем комментарии цепочкой
//  5. отправляет webhooks и выполняет очередь plug-ов
//
// Каждая публикация повторяется через retryStep: до пяти попыток,
// общих для всех видов ошибок. RefreshTokenNeeded обновляет токен,
// BadBody прерывает пост с уведомлением, остальные ошибки тратят попытку.
//
// Повторная публикация (IntervalInDays) запускается дочерним workflow
// с ParentClosePolicy ABANDON: родитель не ждёт его завершения.
//
// Workflow принимает сигнал "poke" и отвечает на query "progress".
package publication
