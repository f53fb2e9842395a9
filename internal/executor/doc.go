// Package executor выполняет jobs как последовательности внешних
// shell-команд.
//
// Машина состояний job:
//
//	PENDING → RUNNING(before) → RUNNING(main) → RUNNING(after)
//	        → SUCCESS | FAILED
//
// Падение before отменяет main; after выполняется всегда и падать
// "по-настоящему" не умеет — его ошибки остаются диагностиками.
// Каждый шаг — блокирующий вызов внешнего процесса с объединённым
// окружением job (переменные pipeline ∪ переменные job).
package executor
