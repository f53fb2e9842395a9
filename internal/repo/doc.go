// Package repo реализует доступ к истории runs в PostgreSQL.
//
// # Обзор
//
// Репозитории:
//   - RunRepo — pipeline_runs: заголовки runs
//   - JobRepo — job_results: терминальные результаты jobs
//   - Recorder — фасад для оркестратора: пишет и то и другое
//
// Хранилище опционально: без DB_URL оркестратор работает
// без истории. Step-вывод и диагностики хранятся как JSONB.
package repo
