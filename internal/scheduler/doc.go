// Package scheduler передаёт посты, которым пора публиковаться, оркестратору.
//
// Scheduler периодически выбирает основные посты в QUEUE, дата публикации
// которых наступит в пределах lookahead, публикует для каждого post.due
// и отмечает пост как переданный.
//
// Структура:
//   - scheduler.go — основная логика Scheduler (Tick, dispatch)
//   - cron.go      — Runner: тики по расписанию robfig/cron
//   - leader.go    — выбор лидера через pg_try_advisory_lock
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    Posts:     postRepo,
//	    Publisher: publisher,
//	    Starter:   starter, // опционально, если брокер недоступен
//	    Logger:    logger,
//	})
//
//	runner, err := scheduler.NewRunner(scheduler.RunnerConfig{
//	    Scheduler: sched,
//	    Leader:    scheduler.NewPGLeader(pool, 0),
//	    Spec:      "@every 5s",
//	})
//
// Leader Election:
//
// Tick вызывается только лидером. Лидер держит advisory lock
// на отдельном соединении до Stop.
package scheduler
