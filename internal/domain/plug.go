package domain

import (
	"fmt"
	"time"
)

// PlugKind — вид отложенного действия после публикации.
type PlugKind string

const (
	// PlugKindInternal — автоматизация внутри организации (например, репост другим аккаунтом).
	PlugKindInternal PlugKind = "internal-plug"

	// PlugKindGlobal — автоматизация интеграции с повторными срабатываниями.
	PlugKindGlobal PlugKind = "global"

	// PlugKindRepeat — повторная публикация поста.
	PlugKindRepeat PlugKind = "repeat-post"
)

// PlugTask — элемент очереди plug-ов.
//
// Закрытое объединение: значения создаются только через
// NewInternalPlug, NewGlobalPlug и NewRepeatPost. Набор заполненных
// полей определяется Kind.
type PlugTask struct {
	Kind PlugKind `json:"kind"`

	// DelayMs — относительная задержка в миллисекундах.
	DelayMs int64 `json:"delay_ms"`

	// PlugID — идентификатор global plug (общий для всех развёрток).
	PlugID string `json:"plug_id,omitempty"`

	// IntegrationID — интеграция, от имени которой выполняется plug.
	IntegrationID string `json:"integration_id,omitempty"`

	// Function — имя функции plug у провайдера.
	Function string `json:"function,omitempty"`

	// Data — параметры, заданные пользователем.
	Data map[string]string `json:"data,omitempty"`
}

// NewInternalPlug создаёт задачу internal plug.
func NewInternalPlug(integrationID, function string, delayMs int64, data map[string]string) PlugTask {
	return PlugTask{
		Kind:          PlugKindInternal,
		DelayMs:       delayMs,
		IntegrationID: integrationID,
		Function:      function,
		Data:          data,
	}
}

// NewGlobalPlug создаёт задачу global plug.
func NewGlobalPlug(plugID, integrationID, function string, delayMs int64, data map[string]string) PlugTask {
	return PlugTask{
		Kind:          PlugKindGlobal,
		DelayMs:       delayMs,
		PlugID:        plugID,
		IntegrationID: integrationID,
		Function:      function,
		Data:          data,
	}
}

// NewRepeatPost создаёт задачу повторной публикации.
func NewRepeatPost(delay time.Duration) PlugTask {
	return PlugTask{
		Kind:    PlugKindRepeat,
		DelayMs: delay.Milliseconds(),
	}
}

// Delay возвращает задержку как time.Duration (отрицательные значения дают 0).
func (t PlugTask) Delay() time.Duration {
	if t.DelayMs <= 0 {
		return 0
	}
	return time.Duration(t.DelayMs) * time.Millisecond
}

// String возвращает краткое описание задачи для логов.
func (t PlugTask) String() string {
	switch t.Kind {
	case PlugKindGlobal:
		return fmt.Sprintf("%s:%s/%s+%dms", t.Kind, t.PlugID, t.Function, t.DelayMs)
	case PlugKindInternal:
		return fmt.Sprintf("%s:%s/%s+%dms", t.Kind, t.IntegrationID, t.Function, t.DelayMs)
	default:
		return fmt.Sprintf("%s+%dms", t.Kind, t.DelayMs)
	}
}

// GlobalPlug — сохранённое определение global plug интеграции.
type GlobalPlug struct {
	ID            string            `json:"id"`
	IntegrationID string            `json:"integration_id"`
	Function      string            `json:"function"`
	Data          map[string]string `json:"data,omitempty"`

	// DelayMs — базовый интервал между срабатываниями.
	DelayMs int64 `json:"delay_ms"`

	// TotalRuns — сколько раз plug срабатывает; 0 — ни разу.
	TotalRuns int `json:"total_runs"`

	// Activated — выключенные plug-и не срабатывают.
	Activated bool `json:"activated"`
}

// Expand разворачивает plug в TotalRuns задач с задержками DelayMs*k, k=1..TotalRuns.
// Выключенный plug и TotalRuns < 1 не дают задач.
func (g GlobalPlug) Expand() []PlugTask {
	if !g.Activated || g.TotalRuns < 1 {
		return nil
	}

	tasks := make([]PlugTask, 0, g.TotalRuns)
	for k := 1; k <= g.TotalRuns; k++ {
		tasks = append(tasks, NewGlobalPlug(g.ID, g.IntegrationID, g.Function, g.DelayMs*int64(k), g.Data))
	}
	return tasks
}

// InternalPlugSetting — описание internal plug в настройках поста.
type InternalPlugSetting struct {
	Function    string            `json:"function"`
	Integration string            `json:"integration"`
	Delay       int64             `json:"delay"`
	Data        map[string]string `json:"data,omitempty"`
}
