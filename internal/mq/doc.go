// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений и их payload-типы
//   - consumer.go   — потребление сообщений из очередей
//   - dispatcher.go — RemoteDispatcher: выполнение jobs агентами
//   - events.go     — трансляция жизненного цикла run
//
// Типы сообщений:
//   - job.ready     — job назначен и ожидает агента
//   - job.completed — агент вернул терминальный результат
//   - run.started, job.finished, run.finished — события (fanout)
//
// Exchanges:
//   - conveyor.jobs   — назначения и результаты jobs
//   - conveyor.events — события жизненного цикла (fanout)
//   - conveyor.dlq    — dead letter queue
//
// Выбор агента по тегам решается на стороне агентов: очередь
// jobs.ready общая, агент с runner'ом без требуемых тегов
// возвращает назначение в очередь (nack + requeue), пока его
// не заберёт подходящий агент.
package mq
