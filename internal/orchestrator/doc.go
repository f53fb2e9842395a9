// Package orchestrator выполняет план pipeline по stages.
//
// # Обзор
//
// Orchestrator принимает готовый ExecutionPlan от scheduler'а
// и проводит run через все stages:
//
//	PENDING → RUNNING → SUCCESS | FAILED
//
// Внутри stage jobs выполняются параллельно через Dispatcher;
// граница stage — барьер: следующий stage не начинается, пока все
// jobs текущего не достигли терминального статуса. FAILED job
// блокирует последующие stages (их jobs получают SKIPPED
// StageNotReached), но не прерывает уже запущенных соседей.
//
// Dispatcher абстрагирует место выполнения: LocalDispatcher
// выполняет jobs в текущем процессе, mq.RemoteDispatcher — через
// очередь на удалённых агентах.
package orchestrator
