// Package agent реализует удалённого исполнителя jobs.
//
// # Обзор
//
// Агент представляет один runner: имя и набор тегов. Все агенты
// потребляют общую очередь jobs.ready; назначение с тегами, которые
// runner агента не покрывает, возвращается в очередь и достаётся
// другому агенту. Prefetch равен единице: runner — mutual-exclusion
// ресурс, один job в каждый момент времени.
package agent
