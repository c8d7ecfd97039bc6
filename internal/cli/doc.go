// Package cli реализует инструмент командной строки postflow.
//
// # Обзор
//
// CLI работает с postflow API по HTTP и не импортирует внутренние
// пакеты системы. Позволяет посмотреть пост и состояние его публикации,
// запустить публикацию и отправить poke выполнению.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для postflow API. Разбирает обёртки ответов
// (data/error) и возвращает ошибки API как *APIError.
//
//	client := cli.NewClient("http://localhost:8080")
//	post, err := client.GetPost("p1")
//
// ## Output
//
// Форматирование вывода: text/tabwriter по умолчанию, JSON с флагом --json.
// Данные выводятся в stdout, сообщения (Success/Error) в stderr:
//
//	postflow post show p1 --json | jq .workflow
//
// ## Commands
//
//   - post show <id>
//   - post publish <id> [--scheduled]
//   - post poke <id>
//
// Группа создаётся фабричной функцией NewPostCmd, принимающей clientFn
// и outputFn. Client и Output создаются лениво, после разбора PersistentFlags.
package cli
