// Package orchestrator запускает и сопровождает выполнения PostWorkflow.
//
// Orchestrator отвечает за:
//   - Потребление сообщений post.due из RabbitMQ
//   - Старт выполнения post_<postID> в Temporal
//   - Сигнал poke и query progress для API
//   - Регистрацию search attributes postId и organizationId при старте
//
// Starter используется и оркестратором, и HTTP API; дедупликация
// запусков обеспечивается идентификатором выполнения.
package orchestrator
