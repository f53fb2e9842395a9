// Package cli реализует инструмент командной строки Conveyor.
//
// # Обзор
//
// CLI — основной интерфейс запуска pipelines. В отличие от
// долгоживущих компонентов (агент), команды собирают нужные
// зависимости по флагам: локальный пул runner'ов или удалённая
// диспетчеризация, запись истории, публикация событий.
//
// # Ключевые компоненты
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.Encoder) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: conveyor run ci.yml --json | jq .
//
// ## Commands
//
//   - run      — выполнить pipeline (однократно или по расписанию)
//   - plan     — показать план выполнения без запуска
//   - validate — проверить определение pipeline
//   - history  — история runs из PostgreSQL
//
// Каждая команда создаётся фабричной функцией (NewRunCmd и т.д.),
// принимающей outputFn — замыкание для ленивого создания Output
// после парсинга PersistentFlags.
//
// # Коды выхода
//
//   - 0 — pipeline завершился SUCCESS
//   - 1 — pipeline завершился FAILED (ErrRunFailed)
//   - 2 — определение некорректно (engine.ErrMalformedDefinition)
//     или ошибка использования
package cli
