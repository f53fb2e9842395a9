// Package trigger повторяет запуски pipeline по расписанию.
//
// Расписание задаётся cron-выражением из пяти полей либо
// фиксированным интервалом. Запуски строго последовательны:
// следующий отсчитывается от завершения цикла ожидания,
// перекрывающиеся запуски невозможны.
package trigger
