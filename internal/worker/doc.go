// Package worker выполняет графы, поставленные в очередь через API.
//
// # Обзор
//
// Worker потребляет сообщения run.requested из очереди runs.requested,
// выполняет граф движком и публикует run.completed с полным RunResult.
// Workers масштабируются горизонтально: несколько экземпляров читают
// одну очередь, каждый run выполняется одним из них.
//
//	w := worker.New(worker.Config{
//	    Engine:    eng,
//	    Publisher: publisher,
//	    Conn:      mqConn,
//	    Logger:    logger,
//	})
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// # Подтверждение сообщений
//
//   - run выполнен и результат опубликован — ack
//   - сообщение не разбирается, нет run_id, чужой тип — nack в dlq.runs
//   - не удалось опубликовать результат — nack с возвратом в очередь
//
// Ошибки узлов и пустой граф не считаются ошибкой обработки: они
// входят в опубликованный результат.
package worker
