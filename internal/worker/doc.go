// Package worker хостит Temporal-воркеры postflow.
//
// # Обзор
//
// Worker поднимает по одному Temporal-воркеру на каждую очередь:
//
//   - Очередь workflow (TEMPORAL_TASK_QUEUE) — PostWorkflow и все activities
//   - Очереди провайдеров (TASK_ROUTES) — только activities
//
// Activities, обращающиеся к провайдеру, идут в очередь TaskRoute
// выполнения, поэтому нагрузку на отдельного провайдера можно
// ограничивать числом воркеров этой очереди. Служебные activities
// выполняются в очереди workflow.
//
//	w, err := worker.New(worker.Config{
//	    Client:     temporalClient,
//	    Activities: acts,
//	    TaskQueue:  "postflow",
//	    Routes:     []string{"x", "linkedin"},
//	    Logger:     logger,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// Workers масштабируются горизонтально: выполнения переживают
// перезапуск процесса, Temporal переназначает задачи другим экземплярам.
package worker
