package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// envFiles — локальные файлы окружения в порядке применения.
var envFiles = []string{".env", ".env.local"}

// LoadEnv загружает переменные из .env файлов, если они есть.
// Значения из файлов перекрывают окружение процесса.
func LoadEnv(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	loaded := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Overload(file); err != nil {
			logger.Warn("failed to load env file", "file", file, "error", err)
			continue
		}
		loaded = append(loaded, file)
	}

	if len(loaded) == 0 {
		logger.Debug("no env files loaded, using process environment")
		return
	}
	logger.Debug("loaded env files", "files", strings.Join(loaded, ", "))
}

// GetEnv возвращает переменную окружения или значение по умолчанию.
func GetEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt возвращает целочисленную переменную окружения.
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetEnvBool возвращает булеву переменную окружения.
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetEnvDuration возвращает длительность ("30s", "5m").
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetEnvList возвращает список значений, разделённых запятыми.
// Пустые элементы отбрасываются.
func GetEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

// Port возвращает адрес для HTTP-сервера из переменной key (":8080").
func Port(key, defaultPort string) string {
	return ":" + GetEnv(key, defaultPort)
}
