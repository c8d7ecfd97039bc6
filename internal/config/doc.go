// Package config читает конфигурацию сервисов из окружения.
//
// LoadEnv подхватывает .env и .env.local (для локальной разработки),
// остальные функции — типизированные геттеры с значениями по умолчанию.
package config
