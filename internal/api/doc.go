// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go      — Handler с DI (чтение постов, запуск выполнений, logger)
//   - routes.go       — регистрация маршрутов
//   - middleware.go   — middleware (recovery, request id, logging)
//   - response.go     — унифицированные JSON-ответы и обработка ошибок
//   - dto.go          — Data Transfer Objects (request/response)
//   - post_handler.go — обработчики для /posts
//
// API позволяет опубликовать пост сразу, отправить poke выполнению
// и посмотреть пост вместе с состоянием его выполнения.
package api
