// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики
//
// Логи уходят в stderr, чтобы не мешать табличному и JSON выводу
// CLI в stdout. Метрики экспортируются на /metrics endpoint
// long-running процессов (агент, оркестратор по расписанию).
package telemetry
